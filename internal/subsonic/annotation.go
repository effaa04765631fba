package subsonic

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/listenbrainz"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// annotationIDs collects the star targets: tracks, whole albums and
// whole artists arrive in distinct parameters.
func annotationIDs(r *http.Request) ([]string, error) {
	var ids []string
	ids = append(ids, r.Form["id"]...)
	ids = append(ids, r.Form["albumId"]...)
	ids = append(ids, r.Form["artistId"]...)
	if len(ids) == 0 {
		return nil, missingParameterError{name: "id"}
	}
	return ids, nil
}

func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	ids, err := annotationIDs(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.catalog.Star(r.Context(), ids); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, wire.NewResponse())
}

func (s *Server) handleUnstar(w http.ResponseWriter, r *http.Request) {
	ids, err := annotationIDs(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.catalog.Unstar(r.Context(), ids); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, wire.NewResponse())
}

// handleSetRating stores the rating locally and forwards loved or
// hated marks to ListenBrainz when a client is configured.
func (s *Server) handleSetRating(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	raw, err := formValue(r, "rating")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rating, err := strconv.Atoi(raw)
	if err != nil {
		s.fail(w, r, missingParameterError{name: "rating"})
		return
	}
	if err := s.catalog.SetRating(r.Context(), id, rating); err != nil {
		s.fail(w, r, err)
		return
	}

	if s.scrobble != nil {
		if score, ok := listenbrainz.ScoreForRating(rating); ok {
			track, err := s.catalog.Track(id)
			if err == nil {
				if err := s.scrobble.Feedback(r.Context(), track, score); err != nil {
					s.log.Warn("feedback submission failed", zap.Error(err))
				}
			}
		}
	}
	s.render(w, r, wire.NewResponse())
}

// handleScrobble records a play. The time parameter is epoch
// milliseconds; submission defaults to true, and false means a
// now-playing notification that touches no local state.
func (s *Server) handleScrobble(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	track, err := s.catalog.Track(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	at := time.Now()
	if ms, ok := optionalInt64(r, "time"); ok {
		at = time.UnixMilli(ms)
	}
	submission := r.FormValue("submission") != "false"

	if !submission {
		if s.scrobble != nil {
			if err := s.scrobble.PlayingNow(r.Context(), track); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		s.render(w, r, wire.NewResponse())
		return
	}

	if err := s.catalog.RecordPlay(r.Context(), id, at); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.scrobble != nil {
		if err := s.scrobble.Listen(r.Context(), track, at); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.render(w, r, wire.NewResponse())
}

func optionalInt64(r *http.Request, name string) (int64, bool) {
	v := r.FormValue(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
