// Package playlists maps playlist calls onto the daemon's stored
// playlists. The daemon is the source of truth; the bridge keeps no
// copy of its own, so every read reflects the daemon's current state.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/mpd"
)

// ErrNotFound means no stored playlist carries the given identifier.
var ErrNotFound = errors.New("playlists: not found")

// Backend is the slice of the daemon client the bridge drives.
type Backend interface {
	ListPlaylists(ctx context.Context) ([]mpd.Attrs, error)
	PlaylistContents(ctx context.Context, name string) ([]mpd.Attrs, error)
	PlaylistClear(ctx context.Context, name string) error
	PlaylistAdd(ctx context.Context, name, uri string) error
	PlaylistRename(ctx context.Context, name, newName string) error
	PlaylistDelete(ctx context.Context, name string, pos int) error
	PlaylistRemove(ctx context.Context, name string) error
}

// Resolver maps identifiers to indexed tracks and paths back to
// tracks.
type Resolver interface {
	Track(id string) (*index.Track, error)
	ResolvePath(path string) (*index.Track, error)
}

// Playlist describes one stored playlist.
type Playlist struct {
	ID        string
	Name      string
	SongCount int
	Duration  int
	Changed   time.Time
}

// Contents pairs a playlist with its resolved tracks.
type Contents struct {
	Playlist Playlist
	Tracks   []*index.Track
}

// Bridge translates playlist operations into stored-playlist commands.
type Bridge struct {
	log      *zap.Logger
	backend  Backend
	resolver Resolver
}

// New returns a bridge over the given daemon client and resolver.
func New(log *zap.Logger, backend Backend, resolver Resolver) (*Bridge, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if backend == nil {
		return nil, errors.New("backend required")
	}
	if resolver == nil {
		return nil, errors.New("resolver required")
	}
	return &Bridge{log: log, backend: backend, resolver: resolver}, nil
}

// List returns every stored playlist, sorted by name. Song counts and
// durations come from each playlist's contents.
func (b *Bridge) List(ctx context.Context) ([]Playlist, error) {
	stored, err := b.backend.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Playlist, 0, len(stored))
	for _, attrs := range stored {
		name := attrs["playlist"]
		if name == "" {
			continue
		}
		entries, err := b.backend.PlaylistContents(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, b.describe(name, attrs, entries))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns one playlist with its entries resolved against the
// index. Entries that no longer resolve are skipped with a warning so
// one stale path cannot hide the rest of the playlist.
func (b *Bridge) Get(ctx context.Context, id string) (*Contents, error) {
	name, attrs, err := b.find(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := b.backend.PlaylistContents(ctx, name)
	if err != nil {
		return nil, err
	}
	tracks := make([]*index.Track, 0, len(entries))
	for _, entry := range entries {
		p := entry["file"]
		if p == "" {
			continue
		}
		track, err := b.resolver.ResolvePath(p)
		if err != nil {
			b.log.Warn("skipping unresolvable playlist entry",
				zap.String("playlist", name),
				zap.String("path", p))
			continue
		}
		tracks = append(tracks, track)
	}
	return &Contents{Playlist: b.describe(name, attrs, entries), Tracks: tracks}, nil
}

// Create replaces the named playlist with the given tracks, creating
// it when absent. Identifiers that do not resolve are skipped with a
// warning.
func (b *Bridge) Create(ctx context.Context, name string, songIDs []string) error {
	if name == "" {
		return errors.New("playlist name required")
	}
	if err := b.backend.PlaylistClear(ctx, name); err != nil {
		return err
	}
	return b.add(ctx, name, songIDs)
}

// Update applies a rename, removals and additions to one playlist, in
// that order so removal indexes refer to the playlist as the client
// saw it.
func (b *Bridge) Update(ctx context.Context, id, rename string, addIDs []string, removeIndexes []int) error {
	name, _, err := b.find(ctx, id)
	if err != nil {
		return err
	}
	if rename != "" && rename != name {
		if err := b.backend.PlaylistRename(ctx, name, rename); err != nil {
			return err
		}
		b.log.Info("renamed playlist",
			zap.String("from", name),
			zap.String("to", rename))
		name = rename
	}

	// Deleting from the tail down keeps the remaining indexes valid.
	indexes := append([]int(nil), removeIndexes...)
	sort.Sort(sort.Reverse(sort.IntSlice(indexes)))
	for _, pos := range indexes {
		if pos < 0 {
			return fmt.Errorf("song index %d out of range", pos)
		}
		if err := b.backend.PlaylistDelete(ctx, name, pos); err != nil {
			return err
		}
	}

	return b.add(ctx, name, addIDs)
}

// Delete removes one stored playlist.
func (b *Bridge) Delete(ctx context.Context, id string) error {
	name, _, err := b.find(ctx, id)
	if err != nil {
		return err
	}
	if err := b.backend.PlaylistRemove(ctx, name); err != nil {
		return err
	}
	b.log.Info("deleted playlist", zap.String("name", name))
	return nil
}

// ResolveID returns the stored-playlist name behind an identifier.
func (b *Bridge) ResolveID(ctx context.Context, id string) (string, error) {
	name, _, err := b.find(ctx, id)
	return name, err
}

func (b *Bridge) add(ctx context.Context, name string, songIDs []string) error {
	for _, songID := range songIDs {
		track, err := b.resolver.Track(songID)
		if err != nil {
			b.log.Warn("skipping unresolvable song",
				zap.String("playlist", name),
				zap.String("id", songID))
			continue
		}
		if err := b.backend.PlaylistAdd(ctx, name, track.Path); err != nil {
			return err
		}
	}
	return nil
}

// find lists the stored playlists and matches the one whose derived
// identifier equals id. Identifiers are content hashes of the name, so
// there is no reverse mapping to consult.
func (b *Bridge) find(ctx context.Context, id string) (string, mpd.Attrs, error) {
	stored, err := b.backend.ListPlaylists(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, attrs := range stored {
		name := attrs["playlist"]
		if name != "" && index.PlaylistID(name) == id {
			return name, attrs, nil
		}
	}
	return "", nil, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
}

func (b *Bridge) describe(name string, attrs mpd.Attrs, entries []mpd.Attrs) Playlist {
	p := Playlist{
		ID:        index.PlaylistID(name),
		Name:      name,
		SongCount: len(entries),
	}
	if ts, err := time.Parse(time.RFC3339, attrs["Last-Modified"]); err == nil {
		p.Changed = ts
	}
	for _, entry := range entries {
		if track, err := b.resolver.ResolvePath(entry["file"]); err == nil {
			p.Duration += track.Duration
		}
	}
	return p
}
