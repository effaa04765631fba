package subsonic

import (
	"net/http"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// handleGetUser describes the configured account. There is exactly one
// user; asking about any other name is refused.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username, err := formValue(r, "username")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if username != s.gate.Username() {
		s.fail(w, r, notAuthorizedError{username: s.gate.Username()})
		return
	}
	resp := wire.NewResponse()
	resp.User = &wire.User{
		Username:     username,
		DownloadRole: true,
		PlaylistRole: true,
		CoverArtRole: true,
		PodcastRole:  s.casts != nil,
		StreamRole:   true,
		Folder:       []string{"/"},
	}
	s.render(w, r, resp)
}

// handleGetAvatar has no avatars to serve: not found for the account
// itself, not authorized for anyone else.
func (s *Server) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	username, err := formValue(r, "username")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if username != s.gate.Username() {
		s.fail(w, r, notAuthorizedError{username: s.gate.Username()})
		return
	}
	s.render(w, r, wire.NewError(wire.CodeNotFound, "The requested data was not found"))
}
