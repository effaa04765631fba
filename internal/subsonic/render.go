package subsonic

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/artwork"
	"github.com/mikey-austin/mpdsub/internal/auth"
	"github.com/mikey-austin/mpdsub/internal/catalog"
	"github.com/mikey-austin/mpdsub/internal/mpd"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/podcasts"
	"github.com/mikey-austin/mpdsub/internal/stream"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

// missingParameterError marks a request lacking a required parameter.
type missingParameterError struct {
	name string
}

func (e missingParameterError) Error() string {
	return fmt.Sprintf("required parameter %q is missing", e.name)
}

// notAuthorizedError marks a request for another user's data.
type notAuthorizedError struct {
	username string
}

func (e notAuthorizedError) Error() string {
	return fmt.Sprintf("%s is not authorized to get details for other users.", e.username)
}

// render writes resp in the format the f parameter selects: json,
// jsonp with a callback, or XML. A jsonp request without a callback
// falls back to XML.
func (s *Server) render(w http.ResponseWriter, r *http.Request, resp *wire.Response) {
	switch r.FormValue("f") {
	case "json":
		body, err := json.Marshal(wire.Envelope{Response: resp})
		if err != nil {
			s.log.Error("marshal response", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	case "jsonp":
		callback := r.FormValue("callback")
		if callback == "" {
			s.renderXML(w, resp)
			return
		}
		body, err := json.Marshal(wire.Envelope{Response: resp})
		if err != nil {
			s.log.Error("marshal response", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/javascript")
		fmt.Fprintf(w, "%s(%s)", callback, body)
	default:
		s.renderXML(w, resp)
	}
}

func (s *Server) renderXML(w http.ResponseWriter, resp *wire.Response) {
	body, err := xml.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, xml.Header)
	w.Write(body)
}

// fail maps err onto a protocol error envelope. Raw backend errors
// never reach clients.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, message := s.classify(err)
	s.render(w, r, wire.NewError(code, message))
}

func (s *Server) classify(err error) (int, string) {
	var missing missingParameterError
	var forbidden notAuthorizedError
	switch {
	case errors.Is(err, auth.ErrMissing), errors.As(err, &missing):
		return wire.CodeMissingParameter, "Required parameter is missing"
	case errors.Is(err, auth.ErrWrongCredentials):
		return wire.CodeWrongCredentials, "Wrong username or password"
	case errors.As(err, &forbidden):
		return wire.CodeNotAuthorized, forbidden.Error()
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, playlists.ErrNotFound),
		errors.Is(err, artwork.ErrNotFound),
		errors.Is(err, stream.ErrNotFound),
		errors.Is(err, podcasts.ErrNotFound),
		errors.Is(err, mpd.ErrNotExist):
		return wire.CodeNotFound, "The requested data was not found"
	case errors.Is(err, catalog.ErrNotReady):
		return wire.CodeGeneric, "Library is not indexed yet"
	case errors.Is(err, mpd.ErrUnavailable), errors.Is(err, mpd.ErrConnectionLost):
		s.log.Warn("backend unavailable", zap.Error(err))
		return wire.CodeGeneric, "Music daemon is unavailable"
	case errors.Is(err, stream.ErrUnsupportedFormat):
		return wire.CodeGeneric, "Unsupported transcode format"
	case errors.Is(err, stream.ErrUnsupportedRange):
		return wire.CodeGeneric, "Range requests are not supported for transcoded playback"
	case errors.Is(err, stream.ErrTranscodeFailed):
		s.log.Warn("transcode failed", zap.Error(err))
		return wire.CodeGeneric, "Transcoding failed"
	default:
		s.log.Warn("request failed", zap.Error(err))
		return wire.CodeGeneric, "A generic error occurred"
	}
}

// formValue fetches a required, non-empty parameter.
func formValue(r *http.Request, name string) (string, error) {
	v := r.FormValue(name)
	if v == "" {
		return "", missingParameterError{name: name}
	}
	return v, nil
}
