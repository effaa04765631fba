package mpd

import (
	"context"
	"errors"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"
	"go.uber.org/zap"
)

// Event is a single idle notification from the daemon.
type Event struct {
	Subsystem string
}

// Watcher follows idle notifications on its own connection so the
// control connection never sits inside an idle command.
type Watcher struct {
	log        *zap.Logger
	cfg        Config
	subsystems []string
	events     chan Event
}

// NewWatcher returns a watcher for the given subsystems. With no
// subsystems it follows the ones that affect the published library:
// database, stored_playlist, sticker and update.
func NewWatcher(log *zap.Logger, cfg Config, subsystems ...string) (*Watcher, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Address == "" {
		return nil, errors.New("address required")
	}
	cfg.applyDefaults()
	if len(subsystems) == 0 {
		subsystems = []string{"database", "stored_playlist", "sticker", "update"}
	}
	return &Watcher{
		log:        log,
		cfg:        cfg,
		subsystems: subsystems,
		events:     make(chan Event, 16),
	}, nil
}

// Events delivers idle notifications. After every (re)connect a
// synthetic database event is emitted first, since changes made while
// the watcher was away were never announced.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run keeps an idle connection open, redialing with backoff when it
// drops. It returns when ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := w.cfg.ReconnectMin
	for {
		iw, err := gompd.NewWatcher(w.cfg.Network, w.cfg.Address, w.cfg.Password, w.subsystems...)
		if err != nil {
			w.log.Warn("idle connection failed",
				zap.String("address", w.cfg.Address),
				zap.Duration("retry_in", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff, w.cfg.ReconnectMax)
			continue
		}

		w.log.Info("idle connection established", zap.String("address", w.cfg.Address))
		backoff = w.cfg.ReconnectMin

		if !w.emit(ctx, Event{Subsystem: "database"}) {
			iw.Close()
			return nil
		}
		alive := w.follow(ctx, iw)
		iw.Close()
		if !alive {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

// follow forwards events until the idle connection errors out. It
// returns false when ctx ended the watch.
func (w *Watcher) follow(ctx context.Context, iw *gompd.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case subsystem, ok := <-iw.Event:
			if !ok {
				return true
			}
			w.log.Debug("subsystem changed", zap.String("subsystem", subsystem))
			if !w.emit(ctx, Event{Subsystem: subsystem}) {
				return false
			}
		case err, ok := <-iw.Error:
			if !ok {
				return true
			}
			w.log.Warn("idle connection lost", zap.Error(err))
			return true
		}
	}
}

func (w *Watcher) emit(ctx context.Context, ev Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
