// Package artwork fetches cover images for tracks, albums and
// playlists. Art comes from the daemon first, embedded then directory
// art, with a local tag parse of the audio object as a fallback for
// daemons that cannot serve pictures.
package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/stream"
)

// ErrNotFound means no art could be located for the identifier.
var ErrNotFound = errors.New("artwork: not found")

// maxTagSource caps how much of an audio object the tag fallback reads.
const maxTagSource = 32 << 20

// Backend is the slice of the daemon client that serves pictures.
type Backend interface {
	ReadPicture(ctx context.Context, uri string) ([]byte, error)
	AlbumArt(ctx context.Context, uri string) ([]byte, error)
}

// Catalog resolves track and album identifiers.
type Catalog interface {
	Track(id string) (*index.Track, error)
	Album(id string) (*index.Album, []*index.Track, error)
}

// Playlists resolves playlist identifiers to their contents.
type Playlists interface {
	Get(ctx context.Context, id string) (*playlists.Contents, error)
}

// Art is one cover image.
type Art struct {
	Data []byte
	Mime string
}

// Config sizes the in-memory art cache.
type Config struct {
	CacheSize int
}

func (c *Config) applyDefaults() {
	if c.CacheSize <= 0 {
		c.CacheSize = 64
	}
}

// Service locates cover art and caches what it finds by library path.
type Service struct {
	log     *zap.Logger
	cfg     Config
	backend Backend
	catalog Catalog
	lists   Playlists
	library stream.Library

	mu    sync.Mutex
	cache map[string]*Art
	order []string
}

// New returns an art service over the given daemon client, catalog and
// byte source.
func New(log *zap.Logger, cfg Config, backend Backend, catalog Catalog, lists Playlists, library stream.Library) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if backend == nil {
		return nil, errors.New("backend required")
	}
	if catalog == nil {
		return nil, errors.New("catalog required")
	}
	if lists == nil {
		return nil, errors.New("playlists required")
	}
	if library == nil {
		return nil, errors.New("library required")
	}
	cfg.applyDefaults()
	return &Service{
		log:     log,
		cfg:     cfg,
		backend: backend,
		catalog: catalog,
		lists:   lists,
		library: library,
		cache:   make(map[string]*Art),
	}, nil
}

// Cover returns the art for a track, album or playlist identifier. An
// album's art is its cover track's; a playlist's is its first resolved
// entry's.
func (s *Service) Cover(ctx context.Context, id string) (*Art, error) {
	path, err := s.pathFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.forPath(ctx, path)
}

func (s *Service) pathFor(ctx context.Context, id string) (string, error) {
	kind, ok := index.KindOf(id)
	if !ok {
		return "", fmt.Errorf("cover %s: %w", id, ErrNotFound)
	}
	switch kind {
	case index.KindTrack:
		track, err := s.catalog.Track(id)
		if err != nil {
			return "", err
		}
		return track.Path, nil
	case index.KindAlbum:
		album, _, err := s.catalog.Album(id)
		if err != nil {
			return "", err
		}
		return album.CoverPath, nil
	case index.KindPlaylist:
		contents, err := s.lists.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if len(contents.Tracks) == 0 {
			return "", fmt.Errorf("playlist %s is empty: %w", contents.Playlist.Name, ErrNotFound)
		}
		return contents.Tracks[0].Path, nil
	default:
		return "", fmt.Errorf("cover %s: %w", id, ErrNotFound)
	}
}

func (s *Service) forPath(ctx context.Context, path string) (*Art, error) {
	if art := s.cached(path); art != nil {
		return art, nil
	}

	if data, err := s.backend.ReadPicture(ctx, path); err == nil && len(data) > 0 {
		return s.store(path, data, ""), nil
	}
	if data, err := s.backend.AlbumArt(ctx, path); err == nil && len(data) > 0 {
		return s.store(path, data, ""), nil
	}

	art, err := s.fromTags(ctx, path)
	if err != nil {
		s.log.Debug("no cover art", zap.String("path", path))
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return art, nil
}

// fromTags reads the object itself and pulls the embedded picture out
// of its tags.
func (s *Service) fromTags(ctx context.Context, path string) (*Art, error) {
	rc, _, err := s.library.Open(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// tag.ReadFrom needs a seeker, so the object is buffered up to the
	// cap first.
	data, err := io.ReadAll(io.LimitReader(rc, maxTagSource))
	if err != nil {
		return nil, err
	}
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, ErrNotFound
	}
	return s.store(path, pic.Data, pic.MIMEType), nil
}

func (s *Service) cached(path string) *Art {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[path]
}

func (s *Service) store(path string, data []byte, mime string) *Art {
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	art := &Art{Data: data, Mime: mime}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[path]; !ok {
		for len(s.cache) >= s.cfg.CacheSize {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.cache, oldest)
		}
		s.order = append(s.order, path)
	}
	s.cache[path] = art
	return art
}
