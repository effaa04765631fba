package subsonic

import (
	"net/http"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, wire.NewResponse())
}

func (s *Server) handleGetLicense(w http.ResponseWriter, r *http.Request) {
	resp := wire.NewResponse()
	resp.License = &wire.License{Valid: true}
	s.render(w, r, resp)
}

// handleGetMusicFolders reports the single root the daemon serves.
func (s *Server) handleGetMusicFolders(w http.ResponseWriter, r *http.Request) {
	resp := wire.NewResponse()
	resp.MusicFolders = &wire.MusicFolders{
		MusicFolder: []wire.MusicFolder{{ID: "/", Name: "Music"}},
	}
	s.render(w, r, resp)
}
