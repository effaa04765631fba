package subsonic

import (
	"net/http"
	"strconv"

	"github.com/mikey-austin/mpdsub/internal/index"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func parseIndex(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.lists.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := &wire.Playlists{}
	for _, pl := range lists {
		out.Playlist = append(out.Playlist, playlistEntry(pl, s.gate.Username()))
	}
	resp := wire.NewResponse()
	resp.Playlists = out
	s.render(w, r, resp)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderPlaylist(w, r, id)
}

func (s *Server) renderPlaylist(w http.ResponseWriter, r *http.Request, id string) {
	contents, err := s.lists.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.PlaylistWithSongs{
		Playlist: playlistEntry(contents.Playlist, s.gate.Username()),
	}
	for _, t := range contents.Tracks {
		out.Entry = append(out.Entry, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.Playlist = out
	s.render(w, r, resp)
}

// handleCreatePlaylist creates a playlist under name, or rewrites an
// existing one when playlistId names it. The reply carries the stored
// playlist, entries in submitted order.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if id := r.FormValue("playlistId"); id != "" && name == "" {
		existing, err := s.lists.ResolveID(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		name = existing
	}
	if name == "" {
		s.fail(w, r, missingParameterError{name: "name"})
		return
	}

	songIDs := r.Form["songId"]
	if err := s.lists.Create(r.Context(), name, songIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderPlaylist(w, r, index.PlaylistID(name))
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "playlistId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var removals []int
	for _, raw := range r.Form["songIndexToRemove"] {
		n, ok := parseIndex(raw)
		if !ok {
			s.fail(w, r, missingParameterError{name: "songIndexToRemove"})
			return
		}
		removals = append(removals, n)
	}
	err = s.lists.Update(r.Context(), id, r.FormValue("name"), r.Form["songIdToAdd"], removals)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, wire.NewResponse())
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.lists.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, wire.NewResponse())
}
