package catalog

import (
	"sort"
	"strings"

	"github.com/mikey-austin/mpdsub/internal/index"
)

// SearchRequest pages each result category independently.
type SearchRequest struct {
	Query        string
	ArtistCount  int
	ArtistOffset int
	AlbumCount   int
	AlbumOffset  int
	SongCount    int
	SongOffset   int
}

// SearchResult holds the matches per category.
type SearchResult struct {
	Artists []*index.Artist
	Albums  []*index.Album
	Tracks  []*index.Track
}

// Search matches the query against artist names, album names and track
// titles, case-insensitively. Prefix matches rank above substring
// matches; ties break lexically. An empty query matches nothing.
func (s *Service) Search(req SearchRequest) (*SearchResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := &SearchResult{}
	q := strings.ToLower(strings.TrimSpace(req.Query))
	if q == "" {
		return out, nil
	}

	artistCount := defaultCount(req.ArtistCount, 20)
	albumCount := defaultCount(req.AlbumCount, 20)
	songCount := defaultCount(req.SongCount, 20)

	type scored struct {
		rank int
		name string
		pos  int
	}
	rankAll := func(n int, nameAt func(int) string) []int {
		var hits []scored
		for i := 0; i < n; i++ {
			name := nameAt(i)
			rank := matchRank(name, q)
			if rank < 0 {
				continue
			}
			hits = append(hits, scored{rank: rank, name: index.SortName(name), pos: i})
		}
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].rank != hits[j].rank {
				return hits[i].rank < hits[j].rank
			}
			return hits[i].name < hits[j].name
		})
		order := make([]int, len(hits))
		for i, h := range hits {
			order[i] = h.pos
		}
		return order
	}

	for _, i := range page(rankAll(len(snap.ArtistList), func(i int) string {
		return snap.ArtistList[i].Name
	}), req.ArtistOffset, artistCount) {
		out.Artists = append(out.Artists, snap.ArtistList[i])
	}
	for _, i := range page(rankAll(len(snap.AlbumList), func(i int) string {
		return snap.AlbumList[i].Name
	}), req.AlbumOffset, albumCount) {
		out.Albums = append(out.Albums, snap.AlbumList[i])
	}
	for _, i := range page(rankAll(len(snap.TrackList), func(i int) string {
		return snap.TrackList[i].Title
	}), req.SongOffset, songCount) {
		out.Tracks = append(out.Tracks, snap.TrackList[i])
	}
	return out, nil
}

// matchRank orders prefix matches before substring matches. Negative
// means no match.
func matchRank(name, q string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, q):
		return 0
	case strings.HasPrefix(index.SortName(name), q):
		return 0
	case strings.Contains(lower, q):
		return 1
	}
	return -1
}

func defaultCount(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > 500 {
		return 500
	}
	return n
}

func page(order []int, offset, count int) []int {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(order) {
		return nil
	}
	end := offset + count
	if end > len(order) {
		end = len(order)
	}
	return order[offset:end]
}
