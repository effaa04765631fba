package index

import (
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mikey-austin/mpdsub/internal/mpd"
)

// Build assembles a snapshot from a full library listing. It is a pure
// function of its input aside from the build timestamp, so the same
// listing always yields the same identifiers and ordering.
func Build(version uint64, songs []mpd.Attrs) *Snapshot {
	snap := &Snapshot{
		Version:      version,
		BuiltAt:      time.Now(),
		Tracks:       map[string]*Track{},
		Albums:       map[string]*Album{},
		Artists:      map[string]*Artist{},
		TracksByPath: map[string]*Track{},
		GenresByName: map[string]*Genre{},
	}

	type albumKey struct{ artist, name string }
	albumTracks := map[albumKey][]*Track{}

	for _, song := range songs {
		// Full listings interleave directory records with songs.
		if song["file"] == "" {
			continue
		}
		t := trackFromAttrs(song)
		if _, dup := snap.TracksByPath[t.Path]; dup {
			continue
		}
		snap.Tracks[t.ID] = t
		snap.TracksByPath[t.Path] = t
		snap.TrackList = append(snap.TrackList, t)
		if t.Album != "" {
			key := albumKey{t.AlbumArtist, t.Album}
			albumTracks[key] = append(albumTracks[key], t)
		}
	}
	sort.Slice(snap.TrackList, func(i, j int) bool {
		return snap.TrackList[i].Path < snap.TrackList[j].Path
	})

	artistAlbums := map[string][]*Album{}
	for key, tracks := range albumTracks {
		al := buildAlbum(key.artist, key.name, tracks)
		snap.Albums[al.ID] = al
		snap.AlbumList = append(snap.AlbumList, al)
		artistAlbums[al.Artist] = append(artistAlbums[al.Artist], al)
	}
	sort.Slice(snap.AlbumList, func(i, j int) bool {
		a, b := snap.AlbumList[i], snap.AlbumList[j]
		if an, bn := SortName(a.Name), SortName(b.Name); an != bn {
			return an < bn
		}
		return a.Artist < b.Artist
	})

	for name, albums := range artistAlbums {
		ar := &Artist{ID: ArtistID(name), Name: name}
		sort.Slice(albums, func(i, j int) bool {
			if albums[i].Year != albums[j].Year {
				return albums[i].Year < albums[j].Year
			}
			return SortName(albums[i].Name) < SortName(albums[j].Name)
		})
		for _, al := range albums {
			ar.AlbumIDs = append(ar.AlbumIDs, al.ID)
		}
		snap.Artists[ar.ID] = ar
		snap.ArtistList = append(snap.ArtistList, ar)
	}
	sort.Slice(snap.ArtistList, func(i, j int) bool {
		return SortName(snap.ArtistList[i].Name) < SortName(snap.ArtistList[j].Name)
	})

	buildGenres(snap)
	return snap
}

func buildAlbum(artist, name string, tracks []*Track) *Album {
	sort.Slice(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if a.Disc != b.Disc {
			return a.Disc < b.Disc
		}
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return a.Title < b.Title
	})

	al := &Album{
		ID:       AlbumID(artist, name),
		Name:     name,
		Artist:   artist,
		ArtistID: ArtistID(artist),
	}
	for _, t := range tracks {
		al.TrackIDs = append(al.TrackIDs, t.ID)
		al.Duration += t.Duration
		if al.Genre == "" {
			al.Genre = t.Genre
		}
		if t.Year > 0 && (al.Year == 0 || t.Year < al.Year) {
			al.Year = t.Year
		}
		if !t.LastModified.IsZero() && (al.Created.IsZero() || t.LastModified.Before(al.Created)) {
			al.Created = t.LastModified
		}
	}
	al.CoverPath = tracks[0].Path
	return al
}

func buildGenres(snap *Snapshot) {
	for _, t := range snap.TrackList {
		if t.Genre == "" {
			continue
		}
		g := snap.GenresByName[t.Genre]
		if g == nil {
			g = &Genre{Name: t.Genre}
			snap.GenresByName[t.Genre] = g
			snap.GenreList = append(snap.GenreList, g)
		}
		g.Tracks = append(g.Tracks, t)
	}
	for _, al := range snap.AlbumList {
		if al.Genre == "" {
			continue
		}
		if g := snap.GenresByName[al.Genre]; g != nil {
			g.Albums = append(g.Albums, al)
		}
	}
	sort.Slice(snap.GenreList, func(i, j int) bool {
		return SortName(snap.GenreList[i].Name) < SortName(snap.GenreList[j].Name)
	})
}

func trackFromAttrs(a mpd.Attrs) *Track {
	p := a["file"]
	title := a["Title"]
	if title == "" {
		title = path.Base(p)
	}
	albumArtist := a["AlbumArtist"]
	artist := a["Artist"]
	if albumArtist == "" {
		albumArtist = artist
	}
	if artist == "" {
		artist = albumArtist
	}

	t := &Track{
		ID:            TrackID(p),
		Path:          p,
		Title:         title,
		Album:         a["Album"],
		Artist:        artist,
		AlbumArtist:   albumArtist,
		Genre:         a["Genre"],
		Track:         leadingInt(a["Track"]),
		Disc:          leadingInt(a["Disc"]),
		Year:          yearOf(a),
		Duration:      durationOf(a),
		Suffix:        suffixOf(p),
		RecordingMBID: a["MUSICBRAINZ_TRACKID"],
		LastModified:  timestampOf(a["Last-Modified"]),
	}
	t.ContentType = MimeType(t.Suffix)
	if t.Album != "" {
		t.AlbumID = AlbumID(t.AlbumArtist, t.Album)
	}
	if t.AlbumArtist != "" {
		t.ArtistID = ArtistID(t.AlbumArtist)
	}
	return t
}

// leadingInt parses values like "5" and "5/12".
func leadingInt(s string) int {
	s, _, _ = strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func yearOf(a mpd.Attrs) int {
	for _, key := range []string{"OriginalDate", "Date"} {
		v := a[key]
		if len(v) >= 4 {
			if y, err := strconv.Atoi(v[:4]); err == nil && y > 0 {
				return y
			}
		}
	}
	return 0
}

func durationOf(a mpd.Attrs) int {
	if v := a["duration"]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f + 0.5)
		}
	}
	if v := a["Time"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func timestampOf(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func suffixOf(p string) string {
	ext := path.Ext(p)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SortName folds case and drops leading articles so browse order
// matches what clients expect.
func SortName(s string) string {
	lower := strings.ToLower(s)
	for _, article := range []string{"the ", "el ", "la ", "los ", "las ", "le ", "les "} {
		if strings.HasPrefix(lower, article) {
			return lower[len(article):]
		}
	}
	return lower
}

// MimeType maps an audio file suffix to its content type.
func MimeType(suffix string) string {
	switch suffix {
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "ogg", "oga":
		return "audio/ogg"
	case "opus":
		return "audio/opus"
	case "m4a", "mp4", "m4b":
		return "audio/mp4"
	case "aac":
		return "audio/aac"
	case "wav":
		return "audio/x-wav"
	case "aif", "aiff":
		return "audio/x-aiff"
	case "wma":
		return "audio/x-ms-wma"
	case "ape":
		return "audio/x-ape"
	case "wv":
		return "audio/x-wavpack"
	case "mpc":
		return "audio/x-musepack"
	}
	return "application/octet-stream"
}
