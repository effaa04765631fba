// Package index derives stable identifiers for everything the daemon
// holds and publishes immutable library snapshots.
package index

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/mpd"
)

// Source lists the library. *mpd.Client satisfies it.
type Source interface {
	ListAllInfo(ctx context.Context, uri string) ([]mpd.Attrs, error)
}

// Config tunes the rebuild behavior.
type Config struct {
	// Debounce is how long to sit on a change notification before
	// rebuilding, so bursts collapse into one scan.
	Debounce time.Duration
}

// Index owns snapshot production. One goroutine rebuilds; any number of
// readers load the current snapshot without coordination.
type Index struct {
	log      *zap.Logger
	source   Source
	events   <-chan mpd.Event
	debounce time.Duration

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// New returns an index that rebuilds on the given change events.
func New(log *zap.Logger, cfg Config, source Source, events <-chan mpd.Event) (*Index, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if source == nil {
		return nil, errors.New("source required")
	}
	if events == nil {
		return nil, errors.New("events required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &Index{
		log:      log,
		source:   source,
		events:   events,
		debounce: cfg.Debounce,
	}, nil
}

// Snapshot returns the current library view. It reports false until the
// first successful build.
func (ix *Index) Snapshot() (*Snapshot, bool) {
	s := ix.current.Load()
	return s, s != nil
}

// Ready reports whether a snapshot has been published.
func (ix *Index) Ready() bool {
	return ix.current.Load() != nil
}

// Run rebuilds on startup and after every relevant change event.
// Rebuilds happen on this goroutine only, so snapshot versions are
// strictly increasing and bursts coalesce. It returns when ctx is
// canceled.
func (ix *Index) Run(ctx context.Context) error {
	ix.rebuild(ctx)

	timer := time.NewTimer(ix.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ix.events:
			if !ok {
				return nil
			}
			if ev.Subsystem != "database" {
				continue
			}
			if !armed {
				timer.Reset(ix.debounce)
				armed = true
			}
		case <-timer.C:
			armed = false
			ix.rebuild(ctx)
		}
	}
}

func (ix *Index) rebuild(ctx context.Context) {
	start := time.Now()
	songs, err := ix.source.ListAllInfo(ctx, "/")
	if err != nil {
		// The next change event retries; a reconnect emits one.
		ix.log.Warn("library scan failed", zap.Error(err))
		return
	}
	snap := Build(ix.version.Add(1), songs)
	ix.current.Store(snap)
	ix.log.Info("library indexed",
		zap.Uint64("version", snap.Version),
		zap.Int("tracks", len(snap.TrackList)),
		zap.Int("albums", len(snap.AlbumList)),
		zap.Int("artists", len(snap.ArtistList)),
		zap.Duration("elapsed", time.Since(start)))
}
