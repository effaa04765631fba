package index

import "time"

// Track is one song as the daemon reported it.
type Track struct {
	ID            string
	Path          string
	Title         string
	Album         string
	AlbumID       string
	Artist        string
	AlbumArtist   string
	ArtistID      string
	Genre         string
	Track         int
	Disc          int
	Year          int
	Duration      int
	Suffix        string
	ContentType   string
	RecordingMBID string
	LastModified  time.Time
}

// Album groups the tracks that share an album artist and album name.
type Album struct {
	ID        string
	Name      string
	Artist    string
	ArtistID  string
	Genre     string
	Year      int
	Duration  int
	Created   time.Time
	CoverPath string
	TrackIDs  []string
}

// Artist is an album artist with its albums sorted by year then name.
type Artist struct {
	ID       string
	Name     string
	AlbumIDs []string
}

// Genre aggregates the albums and tracks carrying one genre tag.
type Genre struct {
	Name   string
	Albums []*Album
	Tracks []*Track
}

// Snapshot is one immutable view of the library. Readers may hold it
// for as long as they like; a rebuild publishes a new snapshot instead
// of touching an old one.
type Snapshot struct {
	Version uint64
	BuiltAt time.Time

	Tracks       map[string]*Track
	Albums       map[string]*Album
	Artists      map[string]*Artist
	TracksByPath map[string]*Track
	GenresByName map[string]*Genre

	ArtistList []*Artist
	AlbumList  []*Album
	TrackList  []*Track
	GenreList  []*Genre
}

// Artist resolves an artist identifier.
func (s *Snapshot) Artist(id string) (*Artist, bool) {
	a, ok := s.Artists[id]
	return a, ok
}

// Album resolves an album identifier.
func (s *Snapshot) Album(id string) (*Album, bool) {
	a, ok := s.Albums[id]
	return a, ok
}

// Track resolves a track identifier.
func (s *Snapshot) Track(id string) (*Track, bool) {
	t, ok := s.Tracks[id]
	return t, ok
}

// TrackByPath resolves a library URI, as found in playlists.
func (s *Snapshot) TrackByPath(path string) (*Track, bool) {
	t, ok := s.TracksByPath[path]
	return t, ok
}

// AlbumTracks returns an album's tracks in disc and track order.
func (s *Snapshot) AlbumTracks(al *Album) []*Track {
	out := make([]*Track, 0, len(al.TrackIDs))
	for _, id := range al.TrackIDs {
		if t, ok := s.Tracks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ArtistAlbums returns an artist's albums in year then name order.
func (s *Snapshot) ArtistAlbums(ar *Artist) []*Album {
	out := make([]*Album, 0, len(ar.AlbumIDs))
	for _, id := range ar.AlbumIDs {
		if al, ok := s.Albums[id]; ok {
			out = append(out, al)
		}
	}
	return out
}
