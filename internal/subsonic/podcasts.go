package subsonic

import (
	"net/http"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// handleGetPodcasts lists the configured feeds. With no feeds
// configured the list is simply empty.
func (s *Server) handleGetPodcasts(w http.ResponseWriter, r *http.Request) {
	withEpisodes := r.FormValue("includeEpisodes") != "false"
	wantID := r.FormValue("id")

	out := &wire.Podcasts{}
	if s.casts != nil {
		for _, ch := range s.casts.Channels() {
			if wantID != "" && ch.ID != wantID {
				continue
			}
			out.Channel = append(out.Channel, podcastChannel(ch, withEpisodes))
		}
	}
	resp := wire.NewResponse()
	resp.Podcasts = out
	s.render(w, r, resp)
}

func (s *Server) handleGetNewestPodcasts(w http.ResponseWriter, r *http.Request) {
	out := &wire.NewestPodcasts{}
	if s.casts != nil {
		for _, ep := range s.casts.Newest(intValue(r, "count")) {
			out.Episode = append(out.Episode, podcastEpisode(ep))
		}
	}
	resp := wire.NewResponse()
	resp.NewestPodcasts = out
	s.render(w, r, resp)
}
