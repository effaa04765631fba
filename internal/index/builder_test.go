package index

import (
	"testing"

	"github.com/mikey-austin/mpdsub/internal/mpd"
)

func testLibrary() []mpd.Attrs {
	return []mpd.Attrs{
		{"directory": "queen"},
		{
			"file": "queen/opera/02.flac", "Title": "Lazing on a Sunday Afternoon",
			"Artist": "Queen", "Album": "A Night at the Opera", "Track": "2/12",
			"Date": "1975", "Genre": "Rock", "duration": "67.2",
			"Last-Modified": "2023-01-02T10:00:00Z",
		},
		{
			"file": "queen/opera/01.flac", "Title": "Death on Two Legs",
			"Artist": "Queen", "Album": "A Night at the Opera", "Track": "1",
			"Date": "1975", "Genre": "Rock", "duration": "223.5",
			"Last-Modified": "2023-01-01T10:00:00Z",
		},
		{
			"file": "holst/planets/2-01.flac", "Title": "Mars",
			"Artist": "Berliner Philharmoniker", "AlbumArtist": "Gustav Holst",
			"Album": "The Planets", "Track": "1", "Disc": "2",
			"Date": "1981-04-01", "Genre": "Classical", "Time": "433",
		},
		{
			"file": "holst/planets/1-01.flac", "Title": "Jupiter",
			"Artist": "Berliner Philharmoniker", "AlbumArtist": "Gustav Holst",
			"Album": "The Planets", "Track": "1", "Disc": "1",
			"Date": "1981-04-01", "Genre": "Classical", "Time": "480",
		},
		{"file": "stray/untagged.mp3"},
	}
}

func TestBuildSnapshot(t *testing.T) {
	snap := Build(1, testLibrary())

	if got := len(snap.TrackList); got != 5 {
		t.Fatalf("expected 5 tracks, got %d", got)
	}
	if got := len(snap.AlbumList); got != 2 {
		t.Fatalf("expected 2 albums, got %d", got)
	}
	if got := len(snap.ArtistList); got != 2 {
		t.Fatalf("expected 2 artists, got %d", got)
	}

	al, ok := snap.Album(AlbumID("Queen", "A Night at the Opera"))
	if !ok {
		t.Fatalf("album not found")
	}
	tracks := snap.AlbumTracks(al)
	if len(tracks) != 2 || tracks[0].Title != "Death on Two Legs" {
		t.Fatalf("album tracks out of order: %+v", tracks)
	}
	if al.Year != 1975 || al.Duration != 224+67 {
		t.Fatalf("album aggregation wrong: year=%d duration=%d", al.Year, al.Duration)
	}
	if al.CoverPath != "queen/opera/01.flac" {
		t.Fatalf("unexpected cover path %q", al.CoverPath)
	}
	if al.Created.IsZero() || al.Created.Day() != 1 {
		t.Fatalf("expected earliest mtime as created, got %v", al.Created)
	}

	// Disc order beats track order.
	planets, ok := snap.Album(AlbumID("Gustav Holst", "The Planets"))
	if !ok {
		t.Fatalf("planets album not found")
	}
	pt := snap.AlbumTracks(planets)
	if len(pt) != 2 || pt[0].Title != "Jupiter" || pt[1].Title != "Mars" {
		t.Fatalf("disc ordering wrong: %+v", pt)
	}
	if pt[0].Artist != "Berliner Philharmoniker" {
		t.Fatalf("track artist lost: %q", pt[0].Artist)
	}
	if planets.Artist != "Gustav Holst" {
		t.Fatalf("album artist wrong: %q", planets.Artist)
	}

	// The untagged stray keeps a title and stays reachable by path.
	stray, ok := snap.TrackByPath("stray/untagged.mp3")
	if !ok {
		t.Fatalf("stray track not indexed")
	}
	if stray.Title != "untagged.mp3" || stray.AlbumID != "" {
		t.Fatalf("stray track mishandled: %+v", stray)
	}
	if stray.ContentType != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", stray.ContentType)
	}
}

func TestBuildGenres(t *testing.T) {
	snap := Build(1, testLibrary())

	if len(snap.GenreList) != 2 {
		t.Fatalf("expected 2 genres, got %v", snap.GenreList)
	}
	rock := snap.GenresByName["Rock"]
	if rock == nil || len(rock.Tracks) != 2 || len(rock.Albums) != 1 {
		t.Fatalf("rock genre wrong: %+v", rock)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a := Build(1, testLibrary())
	b := Build(2, testLibrary())

	if len(a.ArtistList) != len(b.ArtistList) {
		t.Fatalf("artist counts differ")
	}
	for i := range a.ArtistList {
		if a.ArtistList[i].ID != b.ArtistList[i].ID {
			t.Fatalf("artist order or ids changed between builds")
		}
	}
	for i := range a.AlbumList {
		if a.AlbumList[i].ID != b.AlbumList[i].ID {
			t.Fatalf("album order or ids changed between builds")
		}
	}
	for i := range a.TrackList {
		if a.TrackList[i].ID != b.TrackList[i].ID {
			t.Fatalf("track order or ids changed between builds")
		}
	}
}

func TestSortNameDropsArticles(t *testing.T) {
	if SortName("The Beatles") != "beatles" {
		t.Fatalf("got %q", SortName("The Beatles"))
	}
	if SortName("Los Lobos") != "lobos" {
		t.Fatalf("got %q", SortName("Los Lobos"))
	}
	if SortName("Theremin") != "theremin" {
		t.Fatalf("article stripping too eager: %q", SortName("Theremin"))
	}
}
