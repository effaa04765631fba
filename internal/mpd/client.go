// Package mpd maintains the bridge's link to the music player daemon: a
// serialized control connection for commands and a dedicated idle
// connection for change notifications.
package mpd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"
	"go.uber.org/zap"
)

// Attrs is one key/value record from an MPD response.
type Attrs = gompd.Attrs

// Sticker is a named value the daemon stores against a song URI.
type Sticker = gompd.Sticker

// Config controls how the driver reaches the daemon.
type Config struct {
	Network      string
	Address      string
	Password     string
	Timeout      time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = "tcp"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = 500 * time.Millisecond
	}
	if c.ReconnectMax < c.ReconnectMin {
		c.ReconnectMax = 30 * time.Second
	}
}

// Client owns the control connection. Commands are serialized so every
// response pairs with the request that produced it; a connection that
// can no longer uphold that pairing is closed and redialed, never
// reused.
type Client struct {
	log *zap.Logger
	cfg Config

	mu    sync.Mutex
	conn  *gompd.Client
	ready bool

	redial chan struct{}
}

// NewClient validates the config and returns an unconnected client.
// Run establishes and maintains the connection.
func NewClient(log *zap.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Address == "" {
		return nil, errors.New("address required")
	}
	cfg.applyDefaults()
	return &Client{
		log:    log,
		cfg:    cfg,
		redial: make(chan struct{}, 1),
	}, nil
}

// Run dials the daemon and redials with backoff whenever the session
// breaks. It returns when ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.ReconnectMin
	for {
		if err := c.connect(); err != nil {
			c.log.Warn("control connection failed",
				zap.String("address", c.cfg.Address),
				zap.Duration("retry_in", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff, c.cfg.ReconnectMax)
			continue
		}
		backoff = c.cfg.ReconnectMin

		select {
		case <-ctx.Done():
			c.Close()
			return nil
		case <-c.redial:
		}
	}
}

func (c *Client) connect() error {
	conn, err := gompd.Dial(c.cfg.Network, c.cfg.Address)
	if err != nil {
		return err
	}
	if c.cfg.Password != "" {
		if err := conn.Command("password %s", c.cfg.Password).OK(); err != nil {
			conn.Close()
			return fmt.Errorf("password: %w", err)
		}
	}
	// Larger binary chunks make cover art reads cheaper. Daemons that
	// predate the command reject it, which is fine.
	if err := conn.Command("binarylimit 131072").OK(); err != nil {
		c.log.Debug("binarylimit not supported", zap.Error(err))
	}

	c.mu.Lock()
	c.conn = conn
	c.ready = true
	c.mu.Unlock()

	c.log.Info("control connection established", zap.String("address", c.cfg.Address))
	return nil
}

// Close tears down the control connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.ready = false
}

// Ready reports whether the control connection is usable.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && c.conn != nil
}

// exec runs one command while holding the connection. A command that
// gets no reply within the timeout leaves an unpaired response on the
// wire, so the connection is closed rather than reused.
func (c *Client) exec(ctx context.Context, name string, fn func(conn *gompd.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.ready {
		return fmt.Errorf("%s: %w", name, ErrConnectionLost)
	}

	conn := c.conn
	done := make(chan error, 1)
	go func() { done <- fn(conn) }()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		return c.classifyLocked(conn, name, err)
	case <-ctx.Done():
		c.markBrokenLocked(fmt.Errorf("%s: abandoned mid-command: %w", name, ctx.Err()))
		return ctx.Err()
	case <-time.After(c.cfg.Timeout):
		c.markBrokenLocked(fmt.Errorf("%s: no reply within %s", name, c.cfg.Timeout))
		return fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
}

// classifyLocked decides whether a command error was a rejection on a
// live session or the session itself dying. Probing the same connection
// with a ping tells the two apart.
func (c *Client) classifyLocked(conn *gompd.Client, name string, err error) error {
	probe := make(chan error, 1)
	go func() { probe <- conn.Ping() }()

	select {
	case pingErr := <-probe:
		if pingErr != nil {
			c.markBrokenLocked(fmt.Errorf("%s: %w", name, err))
			return fmt.Errorf("%s: %w", name, ErrConnectionLost)
		}
	case <-time.After(c.cfg.Timeout):
		c.markBrokenLocked(fmt.Errorf("%s: probe got no reply", name))
		return fmt.Errorf("%s: %w", name, ErrUnavailable)
	}

	if isNotExist(err) {
		return fmt.Errorf("%s: %v: %w", name, err, ErrNotExist)
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (c *Client) markBrokenLocked(cause error) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.ready = false
	c.log.Warn("control connection lost", zap.Error(cause))
	select {
	case c.redial <- struct{}{}:
	default:
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}

// Ping checks that the daemon answers on the control connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.exec(ctx, "ping", func(conn *gompd.Client) error {
		return conn.Ping()
	})
}

// Stats returns daemon-wide library statistics.
func (c *Client) Stats(ctx context.Context) (Attrs, error) {
	var out Attrs
	err := c.exec(ctx, "stats", func(conn *gompd.Client) error {
		var err error
		out, err = conn.Stats()
		return err
	})
	return out, err
}

// Status returns the daemon status, including any running update job.
func (c *Client) Status(ctx context.Context) (Attrs, error) {
	var out Attrs
	err := c.exec(ctx, "status", func(conn *gompd.Client) error {
		var err error
		out, err = conn.Status()
		return err
	})
	return out, err
}

// ListAllInfo returns the full metadata of every song below uri.
func (c *Client) ListAllInfo(ctx context.Context, uri string) ([]Attrs, error) {
	var out []Attrs
	err := c.exec(ctx, "listallinfo", func(conn *gompd.Client) error {
		var err error
		out, err = conn.ListAllInfo(uri)
		return err
	})
	return out, err
}

// List returns distinct tag values, e.g. List(ctx, "album",
// "albumartist", name) for an artist's albums.
func (c *Client) List(ctx context.Context, args ...string) ([]string, error) {
	var out []string
	err := c.exec(ctx, "list", func(conn *gompd.Client) error {
		var err error
		out, err = conn.List(args...)
		return err
	})
	return out, err
}

// Find returns songs matching the tag filter exactly.
func (c *Client) Find(ctx context.Context, args ...string) ([]Attrs, error) {
	var out []Attrs
	err := c.exec(ctx, "find", func(conn *gompd.Client) error {
		var err error
		out, err = conn.Find(args...)
		return err
	})
	return out, err
}

// Search returns songs matching the tag filter case-insensitively.
func (c *Client) Search(ctx context.Context, args ...string) ([]Attrs, error) {
	var out []Attrs
	err := c.exec(ctx, "search", func(conn *gompd.Client) error {
		var err error
		out, err = conn.Search(args...)
		return err
	})
	return out, err
}

// ListPlaylists returns the daemon's stored playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]Attrs, error) {
	var out []Attrs
	err := c.exec(ctx, "listplaylists", func(conn *gompd.Client) error {
		var err error
		out, err = conn.ListPlaylists()
		return err
	})
	return out, err
}

// PlaylistContents returns the songs of a stored playlist in order.
func (c *Client) PlaylistContents(ctx context.Context, name string) ([]Attrs, error) {
	var out []Attrs
	err := c.exec(ctx, "listplaylistinfo", func(conn *gompd.Client) error {
		var err error
		out, err = conn.PlaylistContents(name)
		return err
	})
	return out, err
}

// PlaylistClear removes every song from a stored playlist.
func (c *Client) PlaylistClear(ctx context.Context, name string) error {
	return c.exec(ctx, "playlistclear", func(conn *gompd.Client) error {
		return conn.PlaylistClear(name)
	})
}

// PlaylistAdd appends a song URI to a stored playlist.
func (c *Client) PlaylistAdd(ctx context.Context, name, uri string) error {
	return c.exec(ctx, "playlistadd", func(conn *gompd.Client) error {
		return conn.PlaylistAdd(name, uri)
	})
}

// PlaylistSave saves the current queue under name, creating an empty
// playlist when the queue is empty.
func (c *Client) PlaylistSave(ctx context.Context, name string) error {
	return c.exec(ctx, "save", func(conn *gompd.Client) error {
		return conn.PlaylistSave(name)
	})
}

// PlaylistRename renames a stored playlist.
func (c *Client) PlaylistRename(ctx context.Context, name, newName string) error {
	return c.exec(ctx, "rename", func(conn *gompd.Client) error {
		return conn.PlaylistRename(name, newName)
	})
}

// PlaylistDelete removes the song at pos from a stored playlist.
func (c *Client) PlaylistDelete(ctx context.Context, name string, pos int) error {
	return c.exec(ctx, "playlistdelete", func(conn *gompd.Client) error {
		return conn.PlaylistDelete(name, pos)
	})
}

// PlaylistRemove deletes a stored playlist.
func (c *Client) PlaylistRemove(ctx context.Context, name string) error {
	return c.exec(ctx, "rm", func(conn *gompd.Client) error {
		return conn.PlaylistRemove(name)
	})
}

// Update asks the daemon to rescan uri ("" for the whole library) and
// returns the job id.
func (c *Client) Update(ctx context.Context, uri string) (int, error) {
	var job int
	err := c.exec(ctx, "update", func(conn *gompd.Client) error {
		var err error
		job, err = conn.Update(uri)
		return err
	})
	return job, err
}

// ReadPicture returns the picture embedded in the song's tags.
func (c *Client) ReadPicture(ctx context.Context, uri string) ([]byte, error) {
	var out []byte
	err := c.exec(ctx, "readpicture", func(conn *gompd.Client) error {
		var err error
		out, err = conn.ReadPicture(uri)
		return err
	})
	return out, err
}

// AlbumArt returns the cover file stored next to the song.
func (c *Client) AlbumArt(ctx context.Context, uri string) ([]byte, error) {
	var out []byte
	err := c.exec(ctx, "albumart", func(conn *gompd.Client) error {
		var err error
		out, err = conn.AlbumArt(uri)
		return err
	})
	return out, err
}

// StickerFind returns, for every song below uri carrying the sticker,
// the song URI and the sticker value at matching indexes.
func (c *Client) StickerFind(ctx context.Context, uri, name string) ([]string, []Sticker, error) {
	var (
		uris     []string
		stickers []Sticker
	)
	err := c.exec(ctx, "sticker find", func(conn *gompd.Client) error {
		var err error
		uris, stickers, err = conn.StickerFind(uri, name)
		return err
	})
	return uris, stickers, err
}

// SetSticker stores a sticker value on a song.
func (c *Client) SetSticker(ctx context.Context, uri, name, value string) error {
	return c.exec(ctx, "sticker set", func(conn *gompd.Client) error {
		return conn.Command("sticker set song %s %s %s", uri, name, value).OK()
	})
}

// DeleteSticker removes a sticker from a song. Missing stickers are
// reported as ErrNotExist.
func (c *Client) DeleteSticker(ctx context.Context, uri, name string) error {
	return c.exec(ctx, "sticker delete", func(conn *gompd.Client) error {
		return conn.Command("sticker delete song %s %s", uri, name).OK()
	})
}
