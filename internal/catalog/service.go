// Package catalog composes library snapshots and live daemon state into
// the views the API serves. It owns no caches of its own: browse reads
// come from one immutable snapshot, everything else is asked live.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/mpd"
)

var (
	// ErrNotFound means an identifier resolved to nothing in the
	// current snapshot.
	ErrNotFound = errors.New("catalog: not found")

	// ErrNotReady means no snapshot has been published yet.
	ErrNotReady = errors.New("catalog: library not indexed yet")
)

// Library publishes snapshots. *index.Index satisfies it.
type Library interface {
	Snapshot() (*index.Snapshot, bool)
}

// Backend is the live daemon surface the catalog needs. *mpd.Client
// satisfies it.
type Backend interface {
	Update(ctx context.Context, uri string) (int, error)
	Status(ctx context.Context) (mpd.Attrs, error)
	Stats(ctx context.Context) (mpd.Attrs, error)
	StickerFind(ctx context.Context, uri, name string) ([]string, []mpd.Sticker, error)
	SetSticker(ctx context.Context, uri, name, value string) error
	DeleteSticker(ctx context.Context, uri, name string) error
}

// Service answers browse, search, list and annotation queries.
type Service struct {
	log     *zap.Logger
	lib     Library
	backend Backend
}

// New returns a catalog over the given snapshot source and daemon.
func New(log *zap.Logger, lib Library, backend Backend) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if lib == nil {
		return nil, errors.New("library required")
	}
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &Service{log: log, lib: lib, backend: backend}, nil
}

func (s *Service) snapshot() (*index.Snapshot, error) {
	snap, ok := s.lib.Snapshot()
	if !ok {
		return nil, ErrNotReady
	}
	return snap, nil
}

// IndexGroup is one letter bucket of the artist index.
type IndexGroup struct {
	Name    string
	Artists []*index.Artist
}

// Indexes is the letter-grouped artist listing.
type Indexes struct {
	Version uint64
	BuiltAt time.Time
	Groups  []IndexGroup
}

// Indexes groups all artists by their index letter, articles ignored.
func (s *Service) Indexes() (*Indexes, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := &Indexes{Version: snap.Version, BuiltAt: snap.BuiltAt}
	var current *IndexGroup
	for _, ar := range snap.ArtistList {
		letter := indexLetter(ar.Name)
		if current == nil || current.Name != letter {
			out.Groups = append(out.Groups, IndexGroup{Name: letter})
			current = &out.Groups[len(out.Groups)-1]
		}
		current.Artists = append(current.Artists, ar)
	}
	return out, nil
}

func indexLetter(name string) string {
	folded := index.SortName(name)
	if folded == "" {
		return "#"
	}
	r := rune(folded[0])
	if r >= 'a' && r <= 'z' {
		return strings.ToUpper(string(r))
	}
	return "#"
}

// Artist resolves an artist and its albums.
func (s *Service) Artist(id string) (*index.Artist, []*index.Album, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}
	ar, ok := snap.Artist(id)
	if !ok {
		return nil, nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	return ar, snap.ArtistAlbums(ar), nil
}

// Album resolves an album and its tracks in play order.
func (s *Service) Album(id string) (*index.Album, []*index.Track, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}
	al, ok := snap.Album(id)
	if !ok {
		return nil, nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	return al, snap.AlbumTracks(al), nil
}

// Track resolves a track identifier.
func (s *Service) Track(id string) (*index.Track, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	t, ok := snap.Track(id)
	if !ok {
		return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// ResolvePath maps a daemon URI onto the indexed track, as playlist
// entries arrive by path.
func (s *Service) ResolvePath(path string) (*index.Track, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	t, ok := snap.TrackByPath(path)
	if !ok {
		return nil, fmt.Errorf("path %s: %w", path, ErrNotFound)
	}
	return t, nil
}

// Genres lists all genres with album and track counts.
func (s *Service) Genres() ([]*index.Genre, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.GenreList, nil
}

// AlbumListRequest selects and pages an album listing.
type AlbumListRequest struct {
	Type     string
	Size     int
	Offset   int
	FromYear *int
	ToYear   *int
	Genre    string
}

// AlbumList answers the getAlbumList family. The frequent and recent
// flavors rank by the play stickers RecordPlay maintains.
func (s *Service) AlbumList(ctx context.Context, req AlbumListRequest) ([]*index.Album, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	size := req.Size
	if size <= 0 {
		size = 10
	}
	if size > 500 {
		size = 500
	}

	var albums []*index.Album
	switch req.Type {
	case "alphabeticalByName":
		albums = snap.AlbumList
	case "alphabeticalByArtist":
		albums = copyAlbums(snap.AlbumList)
		sort.SliceStable(albums, func(i, j int) bool {
			return index.SortName(albums[i].Artist) < index.SortName(albums[j].Artist)
		})
	case "newest":
		albums = copyAlbums(snap.AlbumList)
		sort.SliceStable(albums, func(i, j int) bool {
			return albums[i].Created.After(albums[j].Created)
		})
	case "random":
		albums = copyAlbums(snap.AlbumList)
		rand.Shuffle(len(albums), func(i, j int) {
			albums[i], albums[j] = albums[j], albums[i]
		})
	case "byYear":
		if req.FromYear == nil || req.ToYear == nil {
			return nil, errors.New("byYear needs fromYear and toYear")
		}
		albums = albumsByYear(snap, *req.FromYear, *req.ToYear)
	case "byGenre":
		if req.Genre == "" {
			return nil, errors.New("byGenre needs a genre")
		}
		albums = albumsByGenre(snap, req.Genre)
	case "frequent":
		albums, err = s.albumsByPlayStat(ctx, snap, stickerPlayCount)
		if err != nil {
			return nil, err
		}
	case "recent":
		albums, err = s.albumsByPlayStat(ctx, snap, stickerLastPlayed)
		if err != nil {
			return nil, err
		}
	case "starred":
		starred, err := s.Starred(ctx)
		if err != nil {
			return nil, err
		}
		albums = starred.Albums
	default:
		return nil, fmt.Errorf("unknown album list type %q", req.Type)
	}

	return pageAlbums(albums, req.Offset, size), nil
}

func copyAlbums(in []*index.Album) []*index.Album {
	out := make([]*index.Album, len(in))
	copy(out, in)
	return out
}

func pageAlbums(albums []*index.Album, offset, size int) []*index.Album {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(albums) {
		return nil
	}
	end := offset + size
	if end > len(albums) {
		end = len(albums)
	}
	return albums[offset:end]
}

func albumsByYear(snap *index.Snapshot, from, to int) []*index.Album {
	descending := from > to
	if descending {
		from, to = to, from
	}
	var out []*index.Album
	for _, al := range snap.AlbumList {
		if al.Year >= from && al.Year <= to {
			out = append(out, al)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Year > out[j].Year
		}
		return out[i].Year < out[j].Year
	})
	return out
}

func albumsByGenre(snap *index.Snapshot, genre string) []*index.Album {
	if g := snap.GenresByName[genre]; g != nil {
		return g.Albums
	}
	for _, g := range snap.GenreList {
		if strings.EqualFold(g.Name, genre) {
			return g.Albums
		}
	}
	return nil
}

// RandomSongs returns up to size random tracks, optionally narrowed by
// genre and year range.
func (s *Service) RandomSongs(size int, genre string, fromYear, toYear *int) ([]*index.Track, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 10
	}
	if size > 500 {
		size = 500
	}

	var pool []*index.Track
	if genre != "" {
		if g := snap.GenresByName[genre]; g != nil {
			pool = g.Tracks
		} else {
			for _, g := range snap.GenreList {
				if strings.EqualFold(g.Name, genre) {
					pool = g.Tracks
					break
				}
			}
		}
	} else {
		pool = snap.TrackList
	}

	picked := make([]*index.Track, 0, len(pool))
	for _, t := range pool {
		if fromYear != nil && t.Year < *fromYear {
			continue
		}
		if toYear != nil && (t.Year > *toYear || t.Year == 0) {
			continue
		}
		picked = append(picked, t)
	}
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > size {
		picked = picked[:size]
	}
	return picked, nil
}

// ScanStatus is the daemon's rescan state.
type ScanStatus struct {
	Scanning bool
	Count    int
}

// StartScan asks the daemon to rescan its library. The database change
// notification that follows rebuilds the index.
func (s *Service) StartScan(ctx context.Context) (ScanStatus, error) {
	job, err := s.backend.Update(ctx, "")
	if err != nil {
		return ScanStatus{}, err
	}
	s.log.Info("library rescan requested", zap.Int("job", job))
	return s.Scanning(ctx)
}

// Scanning reports whether an update job is running and how many songs
// the daemon currently holds.
func (s *Service) Scanning(ctx context.Context) (ScanStatus, error) {
	status, err := s.backend.Status(ctx)
	if err != nil {
		return ScanStatus{}, err
	}
	out := ScanStatus{Scanning: status["updating_db"] != ""}
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return ScanStatus{}, err
	}
	if n, err := strconv.Atoi(stats["songs"]); err == nil {
		out.Count = n
	}
	return out, nil
}
