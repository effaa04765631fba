package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/mpd"
)

// Annotations live in the daemon's sticker database, keyed by song URI,
// so they survive bridge restarts and full index rebuilds.
const (
	stickerStarred    = "starred"
	stickerRating     = "rating"
	stickerPlayCount  = "playcount"
	stickerLastPlayed = "lastplayed"
)

// Annotations are the per-track marks for the configured account.
type Annotations struct {
	Starred map[string]time.Time
	Ratings map[string]int
}

// Annotations fetches starred marks and ratings, keyed by track
// identifier. A disabled sticker database yields empty maps rather than
// an error.
func (s *Service) Annotations(ctx context.Context) (Annotations, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Annotations{}, err
	}
	out := Annotations{
		Starred: map[string]time.Time{},
		Ratings: map[string]int{},
	}

	starred, err := s.stickerValues(ctx, stickerStarred)
	if err != nil {
		return Annotations{}, err
	}
	for path, value := range starred {
		t, ok := snap.TrackByPath(path)
		if !ok {
			continue
		}
		when, err := time.Parse(time.RFC3339, value)
		if err != nil {
			when = time.Time{}
		}
		out.Starred[t.ID] = when
	}

	ratings, err := s.stickerValues(ctx, stickerRating)
	if err != nil {
		return Annotations{}, err
	}
	for path, value := range ratings {
		t, ok := snap.TrackByPath(path)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 5 {
			out.Ratings[t.ID] = n
		}
	}
	return out, nil
}

// StarredContent is everything the account has starred. An album counts
// as starred when every track is, an artist when every album is; both
// inherit their newest member time.
type StarredContent struct {
	Tracks  []*index.Track
	Albums  []*index.Album
	Artists []*index.Artist
	When    map[string]time.Time
}

// Starred composes the starred listing from track marks.
func (s *Service) Starred(ctx context.Context) (*StarredContent, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	ann, err := s.Annotations(ctx)
	if err != nil {
		return nil, err
	}

	out := &StarredContent{When: map[string]time.Time{}}
	for _, t := range snap.TrackList {
		if when, ok := ann.Starred[t.ID]; ok {
			out.Tracks = append(out.Tracks, t)
			out.When[t.ID] = when
		}
	}
	for _, al := range snap.AlbumList {
		starred := len(al.TrackIDs) > 0
		var latest time.Time
		for _, tid := range al.TrackIDs {
			when, ok := ann.Starred[tid]
			if !ok {
				starred = false
				break
			}
			if when.After(latest) {
				latest = when
			}
		}
		if starred {
			out.Albums = append(out.Albums, al)
			out.When[al.ID] = latest
		}
	}
	for _, ar := range snap.ArtistList {
		starred := len(ar.AlbumIDs) > 0
		var latest time.Time
		for _, alid := range ar.AlbumIDs {
			when, ok := out.When[alid]
			if !ok {
				starred = false
				break
			}
			if when.After(latest) {
				latest = when
			}
		}
		if starred {
			out.Artists = append(out.Artists, ar)
			out.When[ar.ID] = latest
		}
	}
	return out, nil
}

// Star marks tracks, whole albums or whole artists.
func (s *Service) Star(ctx context.Context, ids []string) error {
	paths, err := s.expandIDs(ids)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range paths {
		if err := s.backend.SetSticker(ctx, p, stickerStarred, now); err != nil {
			return err
		}
	}
	return nil
}

// Unstar clears star marks. Unstarring something never starred is not
// an error.
func (s *Service) Unstar(ctx context.Context, ids []string) error {
	paths, err := s.expandIDs(ids)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.backend.DeleteSticker(ctx, p, stickerStarred); err != nil && !errors.Is(err, mpd.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetRating stores a 1..5 rating on a track; zero removes it.
func (s *Service) SetRating(ctx context.Context, id string, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating %d out of range", rating)
	}
	t, err := s.Track(id)
	if err != nil {
		return err
	}
	if rating == 0 {
		if err := s.backend.DeleteSticker(ctx, t.Path, stickerRating); err != nil && !errors.Is(err, mpd.ErrNotExist) {
			return err
		}
		return nil
	}
	return s.backend.SetSticker(ctx, t.Path, stickerRating, strconv.Itoa(rating))
}

// RecordPlay bumps the track's play count and remembers when it was
// last played, feeding the frequent and recent album lists.
func (s *Service) RecordPlay(ctx context.Context, id string, at time.Time) error {
	t, err := s.Track(id)
	if err != nil {
		return err
	}
	counts, err := s.stickerValues(ctx, stickerPlayCount)
	if err != nil {
		return err
	}
	n := 0
	if v, ok := counts[t.Path]; ok {
		n, _ = strconv.Atoi(v)
	}
	if err := s.backend.SetSticker(ctx, t.Path, stickerPlayCount, strconv.Itoa(n+1)); err != nil {
		return err
	}
	return s.backend.SetSticker(ctx, t.Path, stickerLastPlayed, strconv.FormatInt(at.Unix(), 10))
}

// expandIDs resolves annotation targets to song URIs: a track to
// itself, an album or artist to every track under it.
func (s *Service) expandIDs(ids []string) ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, id := range ids {
		kind, ok := index.KindOf(id)
		if !ok {
			return nil, fmt.Errorf("id %q: %w", id, ErrNotFound)
		}
		switch kind {
		case index.KindTrack:
			t, ok := snap.Track(id)
			if !ok {
				return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
			}
			paths = append(paths, t.Path)
		case index.KindAlbum:
			al, ok := snap.Album(id)
			if !ok {
				return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
			}
			for _, t := range snap.AlbumTracks(al) {
				paths = append(paths, t.Path)
			}
		case index.KindArtist:
			ar, ok := snap.Artist(id)
			if !ok {
				return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
			}
			for _, al := range snap.ArtistAlbums(ar) {
				for _, t := range snap.AlbumTracks(al) {
					paths = append(paths, t.Path)
				}
			}
		default:
			return nil, fmt.Errorf("id %q: %w", id, ErrNotFound)
		}
	}
	return paths, nil
}

func (s *Service) albumsByPlayStat(ctx context.Context, snap *index.Snapshot, sticker string) ([]*index.Album, error) {
	values, err := s.stickerValues(ctx, sticker)
	if err != nil {
		return nil, err
	}
	scores := map[string]int64{}
	for path, v := range values {
		t, ok := snap.TrackByPath(path)
		if !ok || t.AlbumID == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		switch sticker {
		case stickerPlayCount:
			scores[t.AlbumID] += n
		case stickerLastPlayed:
			if n > scores[t.AlbumID] {
				scores[t.AlbumID] = n
			}
		}
	}
	out := make([]*index.Album, 0, len(scores))
	for id := range scores {
		if al, ok := snap.Album(id); ok {
			out = append(out, al)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if si, sj := scores[out[i].ID], scores[out[j].ID]; si != sj {
			return si > sj
		}
		return index.SortName(out[i].Name) < index.SortName(out[j].Name)
	})
	return out, nil
}

// stickerValues returns URI to value for one sticker name across the
// whole library. Protocol rejections (sticker database disabled) come
// back empty; a dead backend is a real error.
func (s *Service) stickerValues(ctx context.Context, name string) (map[string]string, error) {
	uris, stickers, err := s.backend.StickerFind(ctx, "", name)
	if err != nil {
		if errors.Is(err, mpd.ErrConnectionLost) || errors.Is(err, mpd.ErrUnavailable) {
			return nil, err
		}
		s.log.Debug("sticker lookup failed", zap.String("sticker", name), zap.Error(err))
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(uris))
	for i, uri := range uris {
		if i < len(stickers) {
			out[uri] = stickers[i].Value
		}
	}
	return out, nil
}
