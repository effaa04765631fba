// Package podcasts serves configured RSS and Atom feeds through the
// podcast endpoints. Episodes stay on their origin servers; playback
// redirects to the enclosure URL.
package podcasts

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// ErrNotFound means no configured feed carries the identifier.
var ErrNotFound = errors.New("podcasts: not found")

// Config lists the subscribed feeds.
type Config struct {
	Feeds   []string
	Refresh time.Duration
	Timeout time.Duration
}

// Episode is one feed item with a playable enclosure.
type Episode struct {
	ID          string
	ChannelID   string
	Title       string
	Description string
	Published   time.Time
	Duration    int
	StreamURL   string
	ContentType string
	Suffix      string
}

// Channel is one subscribed feed with its episodes, newest first.
type Channel struct {
	ID          string
	URL         string
	Title       string
	Description string
	ImageURL    string
	Status      string
	Episodes    []Episode
}

// Service fetches the configured feeds on an interval and answers
// podcast lookups from the last good fetch.
type Service struct {
	log  *zap.Logger
	cfg  Config
	http *http.Client

	mu    sync.RWMutex
	byURL map[string]*Channel
}

// New returns a podcast service over the configured feeds.
func New(log *zap.Logger, cfg Config) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if len(cfg.Feeds) == 0 {
		return nil, errors.New("feeds required")
	}
	if cfg.Refresh == 0 {
		cfg.Refresh = time.Hour
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Service{
		log:   log,
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		byURL: make(map[string]*Channel),
	}, nil
}

// Run refreshes every feed once at startup and then on the configured
// interval until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.Refresh(ctx)
	ticker := time.NewTicker(s.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Channels returns every configured feed in configuration order. Feeds
// that have not fetched successfully yet appear with status error.
func (s *Service) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.cfg.Feeds))
	for _, feedURL := range s.cfg.Feeds {
		if ch, ok := s.byURL[feedURL]; ok {
			out = append(out, *ch)
			continue
		}
		out = append(out, Channel{
			ID:     channelID(feedURL),
			URL:    feedURL,
			Status: "error",
		})
	}
	return out
}

// Newest returns the most recently published episodes across all
// channels.
func (s *Service) Newest(count int) []Episode {
	if count <= 0 {
		count = 20
	}
	var all []Episode
	for _, ch := range s.Channels() {
		all = append(all, ch.Episodes...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Published.After(all[j].Published) })
	if len(all) > count {
		all = all[:count]
	}
	return all
}

// Episode resolves an episode identifier to its enclosure.
func (s *Service) Episode(id string) (*Episode, error) {
	for _, ch := range s.Channels() {
		for i := range ch.Episodes {
			if ch.Episodes[i].ID == id {
				return &ch.Episodes[i], nil
			}
		}
	}
	return nil, fmt.Errorf("episode %s: %w", id, ErrNotFound)
}

// IsEpisodeID tells whether an identifier names a podcast episode.
func IsEpisodeID(id string) bool { return strings.HasPrefix(id, "pe-") }

// Refresh fetches every configured feed once. Feeds that fail keep
// their last good contents.
func (s *Service) Refresh(ctx context.Context) {
	for _, feedURL := range s.cfg.Feeds {
		if ctx.Err() != nil {
			return
		}
		ch, err := s.fetch(ctx, feedURL)
		if err != nil {
			s.log.Warn("feed refresh failed",
				zap.String("feed", feedURL),
				zap.Error(err))
			s.mu.Lock()
			if _, ok := s.byURL[feedURL]; !ok {
				s.byURL[feedURL] = &Channel{
					ID:     channelID(feedURL),
					URL:    feedURL,
					Status: "error",
				}
			}
			s.mu.Unlock()
			continue
		}
		s.mu.Lock()
		s.byURL[feedURL] = ch
		s.mu.Unlock()
		s.log.Debug("feed refreshed",
			zap.String("feed", feedURL),
			zap.Int("episodes", len(ch.Episodes)))
	}
}

func (s *Service) fetch(ctx context.Context, feedURL string) (*Channel, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mpdsub/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed fetch failed: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		ID:          channelID(feedURL),
		URL:         feedURL,
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
		ImageURL:    feedImage(feed),
		Status:      "completed",
	}
	if ch.Title == "" {
		ch.Title = feedURL
	}
	for _, item := range feed.Items {
		ep, ok := buildEpisode(ch.ID, item)
		if !ok {
			continue
		}
		ch.Episodes = append(ch.Episodes, ep)
	}
	sort.Slice(ch.Episodes, func(i, j int) bool {
		return ch.Episodes[i].Published.After(ch.Episodes[j].Published)
	})
	return ch, nil
}

func buildEpisode(channelID string, item *gofeed.Item) (Episode, bool) {
	if item == nil {
		return Episode{}, false
	}
	audioURL, audioType := pickEnclosure(item)
	if audioURL == "" {
		return Episode{}, false
	}
	key := strings.TrimSpace(item.GUID)
	if key == "" {
		key = audioURL
	}
	duration := ""
	if item.ITunesExt != nil {
		duration = item.ITunesExt.Duration
	}
	ep := Episode{
		ID:          "pe-" + shortHash(channelID, key),
		ChannelID:   channelID,
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		Duration:    durationSeconds(duration),
		StreamURL:   audioURL,
		ContentType: audioType,
		Suffix:      suffixForEnclosure(audioURL, audioType),
	}
	if item.PublishedParsed != nil {
		ep.Published = *item.PublishedParsed
	}
	return ep, true
}

func pickEnclosure(item *gofeed.Item) (string, string) {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if enc.URL != "" {
			return enc.URL, enc.Type
		}
	}
	return "", ""
}

func feedImage(feed *gofeed.Feed) string {
	if feed.Image != nil && feed.Image.URL != "" {
		return feed.Image.URL
	}
	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		return feed.ITunesExt.Image
	}
	return ""
}

// durationSeconds parses durations like "3723", "1:02:03" and "62:03".
func durationSeconds(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(raw, ":") {
		n := 0
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &n); err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func suffixForEnclosure(audioURL, audioType string) string {
	if ext := path.Ext(audioURL); ext != "" && len(ext) <= 5 {
		return strings.TrimPrefix(ext, ".")
	}
	if exts, err := mime.ExtensionsByType(audioType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return ""
}

func channelID(feedURL string) string { return "pc-" + shortHash("feed", feedURL) }

func shortHash(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		io.WriteString(h, p)
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
