// Package client is a compact Subsonic API client for mpdsubctl. It
// speaks the JSON flavor of the protocol and authenticates with the
// salted token scheme, so the password never travels in a query string.
package client

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

const clientName = "mpdsubctl"

// Error is a failed subsonic-response envelope.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Config locates the bridge and carries the account credentials.
type Config struct {
	Server   string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to one bridge instance.
type Client struct {
	base     url.URL
	username string
	password string
	http     *http.Client
}

// New validates the server URL and returns a client.
func New(cfg Config) (*Client, error) {
	if cfg.Server == "" {
		return nil, errors.New("server URL required")
	}
	if cfg.Username == "" {
		return nil, errors.New("username required")
	}
	if cfg.Password == "" {
		return nil, errors.New("password required")
	}
	base, err := url.Parse(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server URL needs an http or https scheme, got %q", cfg.Server)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		base:     *base,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// URL builds a request URL for endpoint with fresh token credentials.
// Exposed so stream URLs can be handed to external players.
func (c *Client) URL(endpoint string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	salt := newSalt()
	sum := md5.Sum([]byte(c.password + salt))
	q.Set("u", c.username)
	q.Set("t", hex.EncodeToString(sum[:]))
	q.Set("s", salt)
	q.Set("v", wire.Version)
	q.Set("c", clientName)

	u := c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/rest/" + endpoint
	u.RawQuery = q.Encode()
	return u.String()
}

func newSalt() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (c *Client) call(ctx context.Context, endpoint string, params url.Values) (*wire.Response, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("f", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint, q), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env wire.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s reply: %w", endpoint, err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("%s reply carries no envelope", endpoint)
	}
	if env.Response.Status != "ok" {
		if env.Response.Error != nil {
			return nil, &Error{Code: env.Response.Error.Code, Message: env.Response.Error.Message}
		}
		return nil, fmt.Errorf("%s failed without an error payload", endpoint)
	}
	return env.Response, nil
}

// Ping checks the bridge is up and returns the API version it speaks.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.call(ctx, "ping", nil)
	if err != nil {
		return "", err
	}
	return resp.Version, nil
}

// Search runs a tag-organized search across artists, albums and songs.
func (c *Client) Search(ctx context.Context, query string, count int) (*wire.SearchResult3, error) {
	params := url.Values{"query": {query}}
	if count > 0 {
		n := strconv.Itoa(count)
		params.Set("artistCount", n)
		params.Set("albumCount", n)
		params.Set("songCount", n)
	}
	resp, err := c.call(ctx, "search3", params)
	if err != nil {
		return nil, err
	}
	if resp.SearchResult3 == nil {
		return &wire.SearchResult3{}, nil
	}
	return resp.SearchResult3, nil
}

// Artists fetches the letter-grouped artist listing.
func (c *Client) Artists(ctx context.Context) (*wire.ArtistsID3, error) {
	resp, err := c.call(ctx, "getArtists", nil)
	if err != nil {
		return nil, err
	}
	if resp.Artists == nil {
		return &wire.ArtistsID3{}, nil
	}
	return resp.Artists, nil
}

// Playlists fetches the stored playlists.
func (c *Client) Playlists(ctx context.Context) (*wire.Playlists, error) {
	resp, err := c.call(ctx, "getPlaylists", nil)
	if err != nil {
		return nil, err
	}
	if resp.Playlists == nil {
		return &wire.Playlists{}, nil
	}
	return resp.Playlists, nil
}

// Playlist fetches one playlist with its entries.
func (c *Client) Playlist(ctx context.Context, id string) (*wire.PlaylistWithSongs, error) {
	resp, err := c.call(ctx, "getPlaylist", url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	if resp.Playlist == nil {
		return nil, fmt.Errorf("playlist reply carries no playlist")
	}
	return resp.Playlist, nil
}

// RandomSongs fetches up to size random tracks.
func (c *Client) RandomSongs(ctx context.Context, size int) (*wire.Songs, error) {
	params := url.Values{}
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
	resp, err := c.call(ctx, "getRandomSongs", params)
	if err != nil {
		return nil, err
	}
	if resp.RandomSongs == nil {
		return &wire.Songs{}, nil
	}
	return resp.RandomSongs, nil
}

// StartScan asks the daemon to rescan its library.
func (c *Client) StartScan(ctx context.Context) (*wire.ScanStatus, error) {
	return c.scanStatus(ctx, "startScan")
}

// ScanStatus reports whether a rescan is running.
func (c *Client) ScanStatus(ctx context.Context) (*wire.ScanStatus, error) {
	return c.scanStatus(ctx, "getScanStatus")
}

func (c *Client) scanStatus(ctx context.Context, endpoint string) (*wire.ScanStatus, error) {
	resp, err := c.call(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.ScanStatus == nil {
		return nil, fmt.Errorf("%s reply carries no scan status", endpoint)
	}
	return resp.ScanStatus, nil
}

// StreamURL returns a playable URL for a song or podcast episode id,
// suitable for handing to an external player.
func (c *Client) StreamURL(id, format string) string {
	params := url.Values{"id": {id}}
	if format != "" {
		params.Set("format", format)
	}
	return c.URL("stream", params)
}
