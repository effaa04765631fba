package subsonic

import (
	"net/url"
	"testing"

	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func TestGetIndexes(t *testing.T) {
	h := newHarness(t)
	env := h.getOK(t, "getIndexes", nil)
	idx := env.Indexes
	if idx == nil {
		t.Fatal("no indexes payload")
	}
	if idx.IgnoredArticles != "The El La Los Las Le Les" {
		t.Errorf("ignoredArticles = %q", idx.IgnoredArticles)
	}
	if idx.LastModified <= 0 {
		t.Errorf("lastModified = %d", idx.LastModified)
	}
	if len(idx.Index) != 2 {
		t.Fatalf("groups = %+v", idx.Index)
	}
	if idx.Index[0].Name != "B" || idx.Index[1].Name != "Q" {
		t.Errorf("group names = %q, %q", idx.Index[0].Name, idx.Index[1].Name)
	}
	if len(idx.Index[0].Artist) != 1 || idx.Index[0].Artist[0].Name != "The Beatles" {
		t.Errorf("B group = %+v", idx.Index[0].Artist)
	}
}

func TestGetArtists(t *testing.T) {
	h := newHarness(t)
	env := h.getOK(t, "getArtists", nil)
	ar := env.Artists
	if ar == nil {
		t.Fatal("no artists payload")
	}
	if len(ar.Index) != 2 || len(ar.Index[1].Artist) != 1 {
		t.Fatalf("groups = %+v", ar.Index)
	}
	queen := ar.Index[1].Artist[0]
	if queen.Name != "Queen" || queen.AlbumCount != 1 || queen.ID == "" {
		t.Errorf("queen = %+v", queen)
	}
}

func TestGetArtistWalk(t *testing.T) {
	h := newHarness(t)
	song := h.getOK(t, "getSong", url.Values{"id": {h.trackID(t, "queen/opera/01.flac")}}).Song
	if song == nil {
		t.Fatal("no song payload")
	}

	env := h.getOK(t, "getArtist", url.Values{"id": {song.ArtistID}})
	ar := env.Artist
	if ar == nil {
		t.Fatal("no artist payload")
	}
	if ar.Name != "Queen" || ar.AlbumCount != 1 {
		t.Errorf("artist = %+v", ar.ArtistID3)
	}
	if len(ar.Album) != 1 {
		t.Fatalf("albums = %+v", ar.Album)
	}
	al := ar.Album[0]
	if al.Name != "A Night at the Opera" || al.SongCount != 2 || al.Year != 1975 {
		t.Errorf("album = %+v", al)
	}
	if al.Duration != 223+67 {
		t.Errorf("album duration = %d", al.Duration)
	}
}

func TestGetArtistUnknown(t *testing.T) {
	h := newHarness(t)
	env := h.getEnvelope(t, "getArtist", url.Values{"id": {"ar-ffffffffffffffff"}})
	if env.Error == nil || env.Error.Code != wire.CodeNotFound {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Error.Message != "The requested data was not found" {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestGetAlbum(t *testing.T) {
	h := newHarness(t)
	song := h.getOK(t, "getSong", url.Values{"id": {h.trackID(t, "queen/opera/02.flac")}}).Song

	env := h.getOK(t, "getAlbum", url.Values{"id": {song.AlbumID}})
	al := env.Album
	if al == nil {
		t.Fatal("no album payload")
	}
	if al.Name != "A Night at the Opera" || al.Artist != "Queen" || al.Genre != "Rock" {
		t.Errorf("album = %+v", al.AlbumID3)
	}
	if len(al.Song) != 2 {
		t.Fatalf("songs = %+v", al.Song)
	}
	first, second := al.Song[0], al.Song[1]
	if first.Title != "Death on Two Legs" || first.Track != 1 {
		t.Errorf("first = %+v", first)
	}
	if second.Title != "Lazing on a Sunday Afternoon" || second.Track != 2 {
		t.Errorf("second = %+v", second)
	}
	if first.Parent != al.ID || first.AlbumID != al.ID {
		t.Errorf("parent = %q, albumId = %q, want %q", first.Parent, first.AlbumID, al.ID)
	}
}

func TestGetSong(t *testing.T) {
	h := newHarness(t)
	id := h.trackID(t, "beatles/abbey/01.flac")
	song := h.getOK(t, "getSong", url.Values{"id": {id}}).Song
	if song == nil {
		t.Fatal("no song payload")
	}
	if song.ID != id || song.Title != "Come Together" || song.Artist != "The Beatles" {
		t.Errorf("song = %+v", song)
	}
	if song.Suffix != "flac" || song.ContentType != "audio/flac" {
		t.Errorf("format = %q / %q", song.Suffix, song.ContentType)
	}
	if song.Path != "beatles/abbey/01.flac" || song.Duration != 259 || song.Year != 1969 {
		t.Errorf("song = %+v", song)
	}
	if song.Type != "music" || song.IsDir {
		t.Errorf("entry kind = %q isDir=%v", song.Type, song.IsDir)
	}
	if song.Created == nil {
		t.Error("created missing")
	}

	missing := h.getEnvelope(t, "getSong", nil)
	if missing.Error == nil || missing.Error.Code != wire.CodeMissingParameter {
		t.Fatalf("missing id: %+v", missing)
	}
	unknown := h.getEnvelope(t, "getSong", url.Values{"id": {"tr-ffffffffffffffff"}})
	if unknown.Error == nil || unknown.Error.Code != wire.CodeNotFound {
		t.Fatalf("unknown id: %+v", unknown)
	}
}

func TestGetGenres(t *testing.T) {
	h := newHarness(t)
	env := h.getOK(t, "getGenres", nil)
	if env.Genres == nil || len(env.Genres.Genre) != 1 {
		t.Fatalf("genres = %+v", env.Genres)
	}
	g := env.Genres.Genre[0]
	if g.Value != "Rock" || g.SongCount != 3 || g.AlbumCount != 2 {
		t.Errorf("genre = %+v", g)
	}
}

func TestGetAlbumList2(t *testing.T) {
	h := newHarness(t)

	newest := h.getOK(t, "getAlbumList2", url.Values{"type": {"newest"}}).AlbumList2
	if newest == nil || len(newest.Album) != 2 {
		t.Fatalf("newest = %+v", newest)
	}
	if newest.Album[0].Name != "Abbey Road" {
		t.Errorf("newest first = %q", newest.Album[0].Name)
	}

	byName := h.getOK(t, "getAlbumList2", url.Values{"type": {"alphabeticalByName"}}).AlbumList2
	if byName.Album[0].Name != "A Night at the Opera" {
		t.Errorf("alphabetical first = %q", byName.Album[0].Name)
	}

	sized := h.getOK(t, "getAlbumList2", url.Values{"type": {"newest"}, "size": {"1"}}).AlbumList2
	if len(sized.Album) != 1 {
		t.Errorf("size=1 returned %d albums", len(sized.Album))
	}
	paged := h.getOK(t, "getAlbumList2", url.Values{"type": {"newest"}, "size": {"1"}, "offset": {"1"}}).AlbumList2
	if len(paged.Album) != 1 || paged.Album[0].Name != "A Night at the Opera" {
		t.Errorf("offset page = %+v", paged.Album)
	}

	byYear := h.getOK(t, "getAlbumList2", url.Values{
		"type": {"byYear"}, "fromYear": {"1960"}, "toYear": {"1970"},
	}).AlbumList2
	if len(byYear.Album) != 1 || byYear.Album[0].Name != "Abbey Road" {
		t.Errorf("byYear = %+v", byYear.Album)
	}

	byGenre := h.getOK(t, "getAlbumList2", url.Values{"type": {"byGenre"}, "genre": {"Rock"}}).AlbumList2
	if len(byGenre.Album) != 2 {
		t.Errorf("byGenre = %+v", byGenre.Album)
	}

	missing := h.getEnvelope(t, "getAlbumList2", nil)
	if missing.Error == nil || missing.Error.Code != wire.CodeMissingParameter {
		t.Fatalf("missing type: %+v", missing)
	}
	unknown := h.getEnvelope(t, "getAlbumList2", url.Values{"type": {"bogus"}})
	if unknown.Error == nil || unknown.Error.Code != wire.CodeGeneric {
		t.Fatalf("unknown type: %+v", unknown)
	}
}

func TestGetAlbumListFolderStyle(t *testing.T) {
	h := newHarness(t)
	env := h.getOK(t, "getAlbumList", url.Values{"type": {"alphabeticalByName"}})
	if env.AlbumList == nil || len(env.AlbumList.Album) != 2 {
		t.Fatalf("albumList = %+v", env.AlbumList)
	}
	first := env.AlbumList.Album[0]
	if !first.IsDir || first.Title != "A Night at the Opera" || first.Artist != "Queen" {
		t.Errorf("first = %+v", first)
	}
}

func TestGetRandomSongs(t *testing.T) {
	h := newHarness(t)

	all := h.getOK(t, "getRandomSongs", url.Values{"size": {"2"}}).RandomSongs
	if all == nil || len(all.Song) != 2 {
		t.Fatalf("songs = %+v", all)
	}

	narrowed := h.getOK(t, "getRandomSongs", url.Values{
		"size": {"10"}, "fromYear": {"1969"}, "toYear": {"1969"},
	}).RandomSongs
	if len(narrowed.Song) != 1 || narrowed.Song[0].Title != "Come Together" {
		t.Errorf("narrowed = %+v", narrowed.Song)
	}
}
