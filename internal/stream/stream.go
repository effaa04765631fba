// Package stream serves audio bytes: raw passthrough from the library
// root or an Opus transcode through an ffmpeg child process.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotFound means the library root has no object at the path.
	ErrNotFound = errors.New("stream: not found")

	// ErrUnsupportedFormat is returned for format values the pipeline
	// cannot produce.
	ErrUnsupportedFormat = errors.New("stream: unsupported format")

	// ErrUnsupportedRange is returned for ranged requests on transcoded
	// playback, whose length is unknowable up front.
	ErrUnsupportedRange = errors.New("stream: range not supported for transcoded playback")

	// ErrTranscodeFailed means the ffmpeg child failed or could not
	// start.
	ErrTranscodeFailed = errors.New("stream: transcode failed")
)

// Library serves raw object bytes by daemon path. Open returns a reader
// positioned at offset and the object's total size, or -1 when the
// backing store does not reveal it.
type Library interface {
	Open(ctx context.Context, path string, offset int64) (io.ReadCloser, int64, error)
}

// Config locates the audio files the daemon's database refers to.
type Config struct {
	Root        string
	S3AccessKey string
	S3SecretKey string
}

// NewLibrary builds the library for the configured root: a plain
// directory path or file:// URL, an http(s):// base, or an
// s3://endpoint/bucket/prefix object store.
func NewLibrary(log *zap.Logger, cfg Config) (Library, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Root == "" {
		return nil, errors.New("library root required")
	}
	if !strings.Contains(cfg.Root, "://") {
		return newFSLibrary(log, cfg.Root)
	}
	u, err := url.Parse(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("library root: %w", err)
	}
	switch u.Scheme {
	case "file":
		return newFSLibrary(log, u.Path)
	case "http", "https":
		return &httpLibrary{base: u, client: http.DefaultClient}, nil
	case "s3":
		return newS3Library(log, u, cfg)
	default:
		return nil, fmt.Errorf("unsupported library root scheme %q", u.Scheme)
	}
}

// opusBitrates is the transcode ladder in kbit/s.
var opusBitrates = [...]int{96, 112, 128, 160, 192}

// TargetBitrate picks the highest ladder step not above max. Zero means
// no cap and yields the top step; caps below the ladder get the bottom
// step.
func TargetBitrate(max int) int {
	if max <= 0 {
		return opusBitrates[len(opusBitrates)-1]
	}
	chosen := opusBitrates[0]
	for _, b := range opusBitrates {
		if b <= max {
			chosen = b
		}
	}
	return chosen
}

// Plan says how one stream request will be served.
type Plan struct {
	Transcode   bool
	Bitrate     int
	ContentType string
}

// Decide maps the request parameters onto a plan: raw passes the file
// through, an absent or ogg format transcodes, anything else is
// unsupported. Only raw playback honors ranges.
func Decide(format string, maxBitRate int, contentType string, offset int64) (Plan, error) {
	switch format {
	case "raw":
		return Plan{ContentType: contentType}, nil
	case "", "ogg":
		if offset > 0 {
			return Plan{}, ErrUnsupportedRange
		}
		return Plan{
			Transcode:   true,
			Bitrate:     TargetBitrate(maxBitRate),
			ContentType: "audio/ogg",
		}, nil
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Pipeline ties the library to the transcoder.
type Pipeline struct {
	log *zap.Logger
	lib Library
	tc  *Transcoder
}

// NewPipeline returns a pipeline over the given library.
func NewPipeline(log *zap.Logger, lib Library, tc *Transcoder) (*Pipeline, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if lib == nil {
		return nil, errors.New("library required")
	}
	if tc == nil {
		return nil, errors.New("transcoder required")
	}
	return &Pipeline{log: log, lib: lib, tc: tc}, nil
}

// Open positions a raw reader at offset and reports the total size.
func (p *Pipeline) Open(ctx context.Context, path string, offset int64) (io.ReadCloser, int64, error) {
	return p.lib.Open(ctx, path, offset)
}

// Transcode streams the object through ffmpeg into w at the given
// ladder bitrate. Canceling ctx kills the child.
func (p *Pipeline) Transcode(ctx context.Context, w io.Writer, path string, bitrate int) error {
	rc, _, err := p.lib.Open(ctx, path, 0)
	if err != nil {
		return err
	}
	defer rc.Close()
	return p.tc.Transcode(ctx, w, rc, bitrate)
}
