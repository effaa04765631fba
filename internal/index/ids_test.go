package index

import "testing"

func TestIDsAreStable(t *testing.T) {
	a := AlbumID("Queen", "A Night at the Opera")
	b := AlbumID("Queen", "A Night at the Opera")
	if a != b {
		t.Fatalf("same key produced different ids: %s vs %s", a, b)
	}
	if AlbumID("Queen", "Jazz") == a {
		t.Fatalf("different keys produced the same id")
	}
}

func TestIDsSeparateKinds(t *testing.T) {
	// An artist and a playlist sharing a name must not collide.
	if ArtistID("Favourites") == PlaylistID("Favourites") {
		t.Fatalf("artist and playlist ids collided")
	}
	if ArtistID("x") == TrackID("x") {
		t.Fatalf("artist and track ids collided")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		id   string
		kind Kind
		ok   bool
	}{
		{ArtistID("Queen"), KindArtist, true},
		{AlbumID("Queen", "Jazz"), KindAlbum, true},
		{TrackID("a/b.flac"), KindTrack, true},
		{PlaylistID("road trip"), KindPlaylist, true},
		{"", "", false},
		{"bogus", "", false},
		{"xx-0011223344556677", "", false},
		{"tr-short", "", false},
	}
	for _, c := range cases {
		kind, ok := KindOf(c.id)
		if ok != c.ok || kind != c.kind {
			t.Fatalf("KindOf(%q) = %q, %v; want %q, %v", c.id, kind, ok, c.kind, c.ok)
		}
	}
}
