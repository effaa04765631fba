// Package listenbrainz submits listens and track feedback to the
// ListenBrainz API.
package listenbrainz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
)

const (
	defaultBaseURL = "https://api.listenbrainz.org"
	clientName     = "mpdsub"
)

// Config carries the ListenBrainz user token. An empty token means
// scrobbling is off and no client should be constructed.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	Version string
}

// Client talks to one ListenBrainz account.
type Client struct {
	log     *zap.Logger
	baseURL string
	token   string
	version string
	http    *http.Client
}

// New returns a client for the configured token.
func New(log *zap.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Token == "" {
		return nil, errors.New("token required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		version: cfg.Version,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type submission struct {
	ListenType string   `json:"listen_type"`
	Payload    []listen `json:"payload"`
}

type listen struct {
	ListenedAt    int64         `json:"listened_at,omitempty"`
	TrackMetadata trackMetadata `json:"track_metadata"`
}

type trackMetadata struct {
	ArtistName     string         `json:"artist_name"`
	TrackName      string         `json:"track_name"`
	ReleaseName    string         `json:"release_name,omitempty"`
	AdditionalInfo additionalInfo `json:"additional_info"`
}

type additionalInfo struct {
	RecordingMBID           string `json:"recording_mbid,omitempty"`
	TrackNumber             string `json:"tracknumber,omitempty"`
	DurationMS              int64  `json:"duration_ms,omitempty"`
	MediaPlayer             string `json:"media_player"`
	SubmissionClient        string `json:"submission_client"`
	SubmissionClientVersion string `json:"submission_client_version"`
}

type feedback struct {
	RecordingMBID string `json:"recording_mbid"`
	Score         int    `json:"score"`
}

// Listen submits one completed listen.
func (c *Client) Listen(ctx context.Context, track *index.Track, at time.Time) error {
	meta, err := c.metadataFor(track)
	if err != nil {
		return err
	}
	return c.post(ctx, "/1/submit-listens", submission{
		ListenType: "single",
		Payload:    []listen{{ListenedAt: at.Unix(), TrackMetadata: meta}},
	})
}

// PlayingNow tells ListenBrainz what is playing without recording a
// listen.
func (c *Client) PlayingNow(ctx context.Context, track *index.Track) error {
	meta, err := c.metadataFor(track)
	if err != nil {
		return err
	}
	return c.post(ctx, "/1/submit-listens", submission{
		ListenType: "playing_now",
		Payload:    []listen{{TrackMetadata: meta}},
	})
}

// ScoreForRating maps the five-star rating scale onto ListenBrainz
// feedback: five stars is love, one star is hate, zero clears. Other
// ratings carry no feedback.
func ScoreForRating(rating int) (int, bool) {
	switch rating {
	case 0:
		return 0, true
	case 1:
		return -1, true
	case 5:
		return 1, true
	}
	return 0, false
}

// Feedback records a love/hate score against the track's recording.
// Tracks without a MusicBrainz recording id are skipped.
func (c *Client) Feedback(ctx context.Context, track *index.Track, score int) error {
	if track.RecordingMBID == "" {
		c.log.Debug("track has no recording mbid, skipping feedback",
			zap.String("path", track.Path))
		return nil
	}
	return c.post(ctx, "/1/feedback/recording-feedback", feedback{
		RecordingMBID: track.RecordingMBID,
		Score:         score,
	})
}

func (c *Client) metadataFor(track *index.Track) (trackMetadata, error) {
	if track.Artist == "" || track.Title == "" {
		return trackMetadata{}, fmt.Errorf("track %s has no artist or title", track.Path)
	}
	meta := trackMetadata{
		ArtistName:  track.Artist,
		TrackName:   track.Title,
		ReleaseName: track.Album,
		AdditionalInfo: additionalInfo{
			RecordingMBID:           track.RecordingMBID,
			DurationMS:              int64(track.Duration) * 1000,
			MediaPlayer:             clientName,
			SubmissionClient:        clientName,
			SubmissionClientVersion: c.version,
		},
	}
	if track.Track > 0 {
		meta.AdditionalInfo.TrackNumber = strconv.Itoa(track.Track)
	}
	return meta, nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("listenbrainz %s: %s: %s", path, resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}
