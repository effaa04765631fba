package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/mpd"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/stream"
)

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}
)

type fakeArtBackend struct {
	mu       sync.Mutex
	embedded map[string][]byte
	folder   map[string][]byte
	calls    int
}

func newFakeArtBackend() *fakeArtBackend {
	return &fakeArtBackend{
		embedded: make(map[string][]byte),
		folder:   make(map[string][]byte),
	}
}

func (f *fakeArtBackend) ReadPicture(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if data, ok := f.embedded[uri]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("readpicture: %w", mpd.ErrNotExist)
}

func (f *fakeArtBackend) AlbumArt(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if data, ok := f.folder[uri]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("albumart: %w", mpd.ErrNotExist)
}

func (f *fakeArtBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	tracks map[string]*index.Track
	albums map[string]*index.Album
}

func (c *fakeCatalog) Track(id string) (*index.Track, error) {
	if t, ok := c.tracks[id]; ok {
		return t, nil
	}
	return nil, errors.New("no such track")
}

func (c *fakeCatalog) Album(id string) (*index.Album, []*index.Track, error) {
	if a, ok := c.albums[id]; ok {
		return a, nil, nil
	}
	return nil, nil, errors.New("no such album")
}

type fakePlaylists struct {
	contents map[string]*playlists.Contents
}

func (p *fakePlaylists) Get(ctx context.Context, id string) (*playlists.Contents, error) {
	if c, ok := p.contents[id]; ok {
		return c, nil
	}
	return nil, playlists.ErrNotFound
}

type fakeLibrary struct {
	objects map[string][]byte
}

func (l *fakeLibrary) Open(ctx context.Context, path string, offset int64) (io.ReadCloser, int64, error) {
	data, ok := l.objects[path]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", path, stream.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data[offset:])), int64(len(data)), nil
}

type harness struct {
	service *Service
	backend *fakeArtBackend
	catalog *fakeCatalog
	lists   *fakePlaylists
	library *fakeLibrary
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeArtBackend(),
		catalog: &fakeCatalog{
			tracks: make(map[string]*index.Track),
			albums: make(map[string]*index.Album),
		},
		lists:   &fakePlaylists{contents: make(map[string]*playlists.Contents)},
		library: &fakeLibrary{objects: make(map[string][]byte)},
	}
	service, err := New(zap.NewNop(), cfg, h.backend, h.catalog, h.lists, h.library)
	if err != nil {
		t.Fatalf("creating art service: %v", err)
	}
	h.service = service
	return h
}

func (h *harness) addTrack(path string) *index.Track {
	track := &index.Track{ID: index.TrackID(path), Path: path}
	h.catalog.tracks[track.ID] = track
	return track
}

// id3WithArt builds a minimal ID3v2.3 file whose only frame is an APIC
// picture.
func id3WithArt(t *testing.T, mime string, art []byte) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteByte(0x00) // ISO-8859-1
	body.WriteString(mime)
	body.WriteByte(0x00)
	body.WriteByte(0x03) // front cover
	body.WriteByte(0x00) // empty description
	body.Write(art)

	var frame bytes.Buffer
	frame.WriteString("APIC")
	size := body.Len()
	frame.Write([]byte{byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)})
	frame.Write([]byte{0x00, 0x00})
	frame.Write(body.Bytes())

	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{0x03, 0x00, 0x00})
	tagSize := frame.Len()
	out.Write([]byte{
		byte(tagSize >> 21 & 0x7f),
		byte(tagSize >> 14 & 0x7f),
		byte(tagSize >> 7 & 0x7f),
		byte(tagSize & 0x7f),
	})
	out.Write(frame.Bytes())
	return out.Bytes()
}

func TestCoverFromEmbeddedPicture(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.backend.embedded[track.Path] = pngBytes

	art, err := h.service.Cover(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("fetching cover: %v", err)
	}
	if !bytes.Equal(art.Data, pngBytes) {
		t.Fatal("cover bytes must come from the embedded picture")
	}
	if art.Mime != "image/png" {
		t.Fatalf("mime = %q, want image/png", art.Mime)
	}
}

func TestCoverFallsBackToDirectoryArt(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.backend.folder[track.Path] = jpegBytes

	art, err := h.service.Cover(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("fetching cover: %v", err)
	}
	if !bytes.Equal(art.Data, jpegBytes) {
		t.Fatal("cover bytes must come from the directory art")
	}
	if art.Mime != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", art.Mime)
	}
}

func TestCoverFallsBackToLocalTags(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.library.objects[track.Path] = id3WithArt(t, "image/png", pngBytes)

	art, err := h.service.Cover(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("fetching cover: %v", err)
	}
	if !bytes.Equal(art.Data, pngBytes) {
		t.Fatal("cover bytes must come from the embedded tag picture")
	}
	if art.Mime != "image/png" {
		t.Fatalf("mime = %q, want the tag's mime", art.Mime)
	}
}

func TestCoverMissingEverywhere(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.library.objects[track.Path] = []byte("not audio at all")

	if _, err := h.service.Cover(context.Background(), track.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCoverCachesByPath(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.backend.embedded[track.Path] = pngBytes

	if _, err := h.service.Cover(context.Background(), track.ID); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	before := h.backend.callCount()
	if _, err := h.service.Cover(context.Background(), track.ID); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if h.backend.callCount() != before {
		t.Fatal("second fetch must be served from the cache")
	}
}

func TestCoverEvictsOldestPath(t *testing.T) {
	h := newHarness(t, Config{CacheSize: 2})
	first := h.addTrack("music/a.mp3")
	h.backend.embedded[first.Path] = pngBytes
	for _, p := range []string{"music/b.mp3", "music/c.mp3"} {
		track := h.addTrack(p)
		h.backend.embedded[track.Path] = jpegBytes
		if _, err := h.service.Cover(context.Background(), track.ID); err != nil {
			t.Fatalf("warming cache with %s: %v", p, err)
		}
	}

	if _, err := h.service.Cover(context.Background(), first.ID); err != nil {
		t.Fatalf("fetching evicted path: %v", err)
	}
	before := h.backend.callCount()
	if _, err := h.service.Cover(context.Background(), first.ID); err != nil {
		t.Fatalf("refetching: %v", err)
	}
	if h.backend.callCount() != before {
		t.Fatal("refetched path must be cached again")
	}
}

func TestCoverForAlbumUsesCoverTrack(t *testing.T) {
	h := newHarness(t, Config{})
	album := &index.Album{ID: index.AlbumID("Queen", "Opera"), CoverPath: "music/a.mp3"}
	h.catalog.albums[album.ID] = album
	h.backend.embedded[album.CoverPath] = pngBytes

	art, err := h.service.Cover(context.Background(), album.ID)
	if err != nil {
		t.Fatalf("fetching album cover: %v", err)
	}
	if art.Mime != "image/png" {
		t.Fatalf("mime = %q, want image/png", art.Mime)
	}
}

func TestCoverForPlaylistUsesFirstEntry(t *testing.T) {
	h := newHarness(t, Config{})
	track := h.addTrack("music/a.mp3")
	h.backend.embedded[track.Path] = pngBytes

	id := index.PlaylistID("mix")
	h.lists.contents[id] = &playlists.Contents{
		Playlist: playlists.Playlist{ID: id, Name: "mix"},
		Tracks:   []*index.Track{track},
	}
	if _, err := h.service.Cover(context.Background(), id); err != nil {
		t.Fatalf("fetching playlist cover: %v", err)
	}

	empty := index.PlaylistID("empty")
	h.lists.contents[empty] = &playlists.Contents{
		Playlist: playlists.Playlist{ID: empty, Name: "empty"},
	}
	if _, err := h.service.Cover(context.Background(), empty); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty playlist error = %v, want ErrNotFound", err)
	}
}

func TestCoverRejectsForeignIdentifiers(t *testing.T) {
	h := newHarness(t, Config{})
	if _, err := h.service.Cover(context.Background(), "garbage"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id error = %v, want ErrNotFound", err)
	}
	if _, err := h.service.Cover(context.Background(), index.ArtistID("Queen")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("artist id error = %v, want ErrNotFound", err)
	}
}
