package index

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"strings"
)

// Kind tells what native key an identifier was derived from.
type Kind string

const (
	KindArtist   Kind = "ar"
	KindAlbum    Kind = "al"
	KindTrack    Kind = "tr"
	KindPlaylist Kind = "pl"
)

// hashID derives an identifier from the typed native key. The same key
// always yields the same identifier, across rebuilds and restarts, so
// clients may cache them indefinitely.
func hashID(kind Kind, parts ...string) string {
	h := sha1.New()
	io.WriteString(h, string(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		io.WriteString(h, p)
	}
	sum := h.Sum(nil)
	return string(kind) + "-" + hex.EncodeToString(sum[:8])
}

// ArtistID identifies an artist by name.
func ArtistID(name string) string { return hashID(KindArtist, name) }

// AlbumID identifies an album by album artist and name.
func AlbumID(artist, name string) string { return hashID(KindAlbum, artist, name) }

// TrackID identifies a song by its library URI.
func TrackID(path string) string { return hashID(KindTrack, path) }

// PlaylistID identifies a stored playlist by name.
func PlaylistID(name string) string { return hashID(KindPlaylist, name) }

// KindOf parses the kind prefix of an identifier. It returns false for
// identifiers this bridge never issued.
func KindOf(id string) (Kind, bool) {
	prefix, rest, ok := strings.Cut(id, "-")
	if !ok || len(rest) != 16 {
		return "", false
	}
	switch Kind(prefix) {
	case KindArtist, KindAlbum, KindTrack, KindPlaylist:
		return Kind(prefix), true
	}
	return "", false
}
