package subsonic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/podcasts"
	"github.com/mikey-austin/mpdsub/internal/stream"
)

// handleStream serves track audio, transcoded to Opus unless the
// client asks for raw. Podcast episodes redirect to their enclosure.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if podcasts.IsEpisodeID(id) {
		s.redirectEpisode(w, r, id)
		return
	}
	t, err := s.catalog.Track(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start, end, hasRange := parseRange(r.Header.Get("Range"))
	plan, err := stream.Decide(r.FormValue("format"), intValue(r, "maxBitRate"), t.ContentType, start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if plan.Transcode {
		s.serveTranscode(w, r, t, plan)
		return
	}
	s.serveRaw(w, r, t, plan.ContentType, start, end, hasRange)
}

// handleDownload always serves the original file, ranges honored.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if podcasts.IsEpisodeID(id) {
		s.redirectEpisode(w, r, id)
		return
	}
	t, err := s.catalog.Track(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	start, end, hasRange := parseRange(r.Header.Get("Range"))
	s.serveRaw(w, r, t, t.ContentType, start, end, hasRange)
}

func (s *Server) redirectEpisode(w http.ResponseWriter, r *http.Request, id string) {
	if s.casts == nil {
		s.fail(w, r, podcasts.ErrNotFound)
		return
	}
	ep, err := s.casts.Episode(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, ep.StreamURL, http.StatusFound)
}

// serveRaw streams file bytes, honoring a single range when the
// backing store reveals the total size.
func (s *Server) serveRaw(w http.ResponseWriter, r *http.Request, t *index.Track, contentType string, start, end int64, hasRange bool) {
	ctx := r.Context()
	rc, total, err := s.pipeline.Open(ctx, t.Path, start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer rc.Close()

	if hasRange && total >= 0 && start >= total {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", total))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")

	if !hasRange {
		if total >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
		}
		w.WriteHeader(http.StatusOK)
		s.copyStream(w, rc, t.Path)
		return
	}

	if total < 0 {
		// Size unknown, so no Content-Range can be built. Start over
		// and serve the whole object.
		rc.Close()
		whole, _, err := s.pipeline.Open(ctx, t.Path, 0)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		defer whole.Close()
		w.WriteHeader(http.StatusOK)
		s.copyStream(w, whole, t.Path)
		return
	}

	last := total - 1
	if end >= 0 && end < last {
		last = end
	}
	length := last - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, last, total))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	s.copyStream(w, io.LimitReader(rc, length), t.Path)
}

func (s *Server) copyStream(w io.Writer, src io.Reader, path string) {
	if _, err := io.Copy(w, src); err != nil {
		s.log.Debug("stream ended early", zap.String("path", path), zap.Error(err))
	}
}

// serveTranscode pipes the encoder's output straight to the client.
// Once bytes have been flushed no error envelope is possible, so later
// failures just end the response.
func (s *Server) serveTranscode(w http.ResponseWriter, r *http.Request, t *index.Track, plan stream.Plan) {
	w.Header().Set("Content-Type", plan.ContentType)

	cw := &countingWriter{w: w}
	err := s.pipeline.Transcode(r.Context(), cw, t.Path, plan.Bitrate)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) || r.Context().Err() != nil {
		s.log.Debug("client left during transcode", zap.String("path", t.Path))
		return
	}
	if cw.n == 0 {
		s.fail(w, r, err)
		return
	}
	s.log.Warn("transcode aborted mid-stream",
		zap.String("path", t.Path),
		zap.Int64("bytes_sent", cw.n),
		zap.Error(err))
}

// countingWriter flushes after every write so audio reaches the client
// as the encoder produces it, and remembers whether anything was sent.
type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

// handleGetCoverArt serves cover bytes. The size parameter is accepted
// and ignored; art is served at its stored dimensions.
func (s *Server) handleGetCoverArt(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	art, err := s.art.Cover(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", art.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Write(art.Data)
}

// parseRange reads a single bytes range. end is -1 on an open range,
// hasRange is false for absent, multi-part or malformed headers, which
// are served whole.
func parseRange(header string) (start, end int64, hasRange bool) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, -1, false
	}
	from, to, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, -1, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil || start < 0 {
		return 0, -1, false
	}
	end = -1
	if trimmed := strings.TrimSpace(to); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < start {
			return 0, -1, false
		}
	}
	return start, end, true
}
