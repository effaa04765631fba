package playlists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/mpd"
)

type fakeBackend struct {
	mu      sync.Mutex
	lists   map[string][]string
	changed map[string]string
	fail    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		lists:   make(map[string][]string),
		changed: make(map[string]string),
	}
}

func (f *fakeBackend) seed(name string, paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = append([]string(nil), paths...)
	f.changed[name] = "2024-05-01T10:00:00Z"
}

func (f *fakeBackend) contents(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[name]...)
}

func (f *fakeBackend) ListPlaylists(ctx context.Context) ([]mpd.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	names := make([]string, 0, len(f.lists))
	for name := range f.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]mpd.Attrs, 0, len(names))
	for _, name := range names {
		out = append(out, mpd.Attrs{
			"playlist":      name,
			"Last-Modified": f.changed[name],
		})
	}
	return out, nil
}

func (f *fakeBackend) PlaylistContents(ctx context.Context, name string) ([]mpd.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths, ok := f.lists[name]
	if !ok {
		return nil, fmt.Errorf("listplaylistinfo: %w", mpd.ErrNotExist)
	}
	out := make([]mpd.Attrs, 0, len(paths))
	for _, p := range paths {
		out = append(out, mpd.Attrs{"file": p})
	}
	return out, nil
}

func (f *fakeBackend) PlaylistClear(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = nil
	return nil
}

func (f *fakeBackend) PlaylistAdd(ctx context.Context, name, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = append(f.lists[name], uri)
	return nil
}

func (f *fakeBackend) PlaylistRename(ctx context.Context, name, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths, ok := f.lists[name]
	if !ok {
		return fmt.Errorf("rename: %w", mpd.ErrNotExist)
	}
	if _, exists := f.lists[newName]; exists {
		return errors.New("rename: playlist already exists")
	}
	delete(f.lists, name)
	f.lists[newName] = paths
	f.changed[newName] = f.changed[name]
	delete(f.changed, name)
	return nil
}

func (f *fakeBackend) PlaylistDelete(ctx context.Context, name string, pos int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths, ok := f.lists[name]
	if !ok {
		return fmt.Errorf("playlistdelete: %w", mpd.ErrNotExist)
	}
	if pos < 0 || pos >= len(paths) {
		return fmt.Errorf("playlistdelete: bad song index %d", pos)
	}
	f.lists[name] = append(paths[:pos], paths[pos+1:]...)
	return nil
}

func (f *fakeBackend) PlaylistRemove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lists[name]; !ok {
		return fmt.Errorf("rm: %w", mpd.ErrNotExist)
	}
	delete(f.lists, name)
	delete(f.changed, name)
	return nil
}

type fakeResolver struct {
	byPath map[string]*index.Track
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{byPath: make(map[string]*index.Track)}
}

func (r *fakeResolver) add(path string, duration int) *index.Track {
	t := &index.Track{ID: index.TrackID(path), Path: path, Duration: duration}
	r.byPath[path] = t
	return t
}

func (r *fakeResolver) Track(id string) (*index.Track, error) {
	for _, t := range r.byPath {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New("no such track")
}

func (r *fakeResolver) ResolvePath(path string) (*index.Track, error) {
	if t, ok := r.byPath[path]; ok {
		return t, nil
	}
	return nil, errors.New("no such path")
}

func newTestBridge(t *testing.T) (*Bridge, *fakeBackend, *fakeResolver) {
	t.Helper()
	backend := newFakeBackend()
	resolver := newFakeResolver()
	bridge, err := New(zap.NewNop(), backend, resolver)
	if err != nil {
		t.Fatalf("creating bridge: %v", err)
	}
	return bridge, backend, resolver
}

func TestListDescribesPlaylists(t *testing.T) {
	bridge, backend, resolver := newTestBridge(t)
	resolver.add("music/a.mp3", 100)
	resolver.add("music/b.mp3", 200)
	backend.seed("rock", "music/a.mp3", "music/b.mp3", "music/gone.mp3")
	backend.seed("ambient", "music/b.mp3")

	got, err := bridge.List(context.Background())
	if err != nil {
		t.Fatalf("listing playlists: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d playlists, want 2", len(got))
	}
	if got[0].Name != "ambient" || got[1].Name != "rock" {
		t.Fatalf("playlists not sorted by name: %q, %q", got[0].Name, got[1].Name)
	}
	rock := got[1]
	if rock.ID != index.PlaylistID("rock") {
		t.Fatalf("playlist id = %q, want the derived id", rock.ID)
	}
	if rock.SongCount != 3 {
		t.Fatalf("song count = %d, want all 3 entries", rock.SongCount)
	}
	if rock.Duration != 300 {
		t.Fatalf("duration = %d, want 300 from the resolvable entries", rock.Duration)
	}
	if rock.Changed.IsZero() {
		t.Fatal("changed timestamp must be parsed")
	}
}

func TestGetSkipsUnresolvableEntries(t *testing.T) {
	bridge, backend, resolver := newTestBridge(t)
	a := resolver.add("music/a.mp3", 100)
	b := resolver.add("music/b.mp3", 200)
	backend.seed("rock", a.Path, "music/gone.mp3", b.Path)

	got, err := bridge.Get(context.Background(), index.PlaylistID("rock"))
	if err != nil {
		t.Fatalf("getting playlist: %v", err)
	}
	if got.Playlist.SongCount != 3 {
		t.Fatalf("song count = %d, want 3", got.Playlist.SongCount)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("got %d resolved tracks, want 2", len(got.Tracks))
	}
	if got.Tracks[0].Path != a.Path || got.Tracks[1].Path != b.Path {
		t.Fatalf("resolved tracks out of order: %q, %q", got.Tracks[0].Path, got.Tracks[1].Path)
	}
}

func TestGetUnknownPlaylist(t *testing.T) {
	bridge, _, _ := newTestBridge(t)
	if _, err := bridge.Get(context.Background(), index.PlaylistID("absent")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateReplacesContents(t *testing.T) {
	bridge, backend, resolver := newTestBridge(t)
	a := resolver.add("music/a.mp3", 100)
	b := resolver.add("music/b.mp3", 200)
	backend.seed("mix", "music/stale.mp3")

	err := bridge.Create(context.Background(), "mix", []string{b.ID, "tr-ffffffffffffffff", a.ID})
	if err != nil {
		t.Fatalf("creating playlist: %v", err)
	}
	want := []string{b.Path, a.Path}
	got := backend.contents("mix")
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("stored contents = %v, want %v", got, want)
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	bridge, _, resolver := newTestBridge(t)
	a := resolver.add("music/a.mp3", 100)
	b := resolver.add("music/b.mp3", 200)

	if err := bridge.Create(context.Background(), "fresh", []string{b.ID, a.ID}); err != nil {
		t.Fatalf("creating playlist: %v", err)
	}
	got, err := bridge.Get(context.Background(), index.PlaylistID("fresh"))
	if err != nil {
		t.Fatalf("reading playlist back: %v", err)
	}
	if len(got.Tracks) != 2 || got.Tracks[0].ID != b.ID || got.Tracks[1].ID != a.ID {
		t.Fatal("read-back must return the submitted tracks in submitted order")
	}
}

func TestCreateRequiresName(t *testing.T) {
	bridge, _, _ := newTestBridge(t)
	if err := bridge.Create(context.Background(), "", nil); err == nil {
		t.Fatal("empty name must be rejected")
	}
}

func TestUpdateAppliesRenameRemovalsAndAdditions(t *testing.T) {
	bridge, backend, resolver := newTestBridge(t)
	var paths []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		track := resolver.add("music/"+name+".mp3", 60)
		paths = append(paths, track.Path)
	}
	backend.seed("mix", paths[0], paths[1], paths[2], paths[3])

	err := bridge.Update(context.Background(), index.PlaylistID("mix"), "best",
		[]string{index.TrackID(paths[4])}, []int{0, 2})
	if err != nil {
		t.Fatalf("updating playlist: %v", err)
	}
	if got := backend.contents("mix"); len(got) != 0 {
		t.Fatalf("old name still has contents: %v", got)
	}
	want := []string{paths[1], paths[3], paths[4]}
	got := backend.contents("best")
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("updated contents = %v, want %v", got, want)
	}
}

func TestUpdateRejectsNegativeIndex(t *testing.T) {
	bridge, backend, _ := newTestBridge(t)
	backend.seed("mix", "music/a.mp3")
	err := bridge.Update(context.Background(), index.PlaylistID("mix"), "", nil, []int{-1})
	if err == nil {
		t.Fatal("negative index must be rejected")
	}
}

func TestDeleteRemovesPlaylist(t *testing.T) {
	bridge, backend, _ := newTestBridge(t)
	backend.seed("mix", "music/a.mp3")

	id := index.PlaylistID("mix")
	if err := bridge.Delete(context.Background(), id); err != nil {
		t.Fatalf("deleting playlist: %v", err)
	}
	if _, ok := backend.lists["mix"]; ok {
		t.Fatal("playlist must be gone from the daemon")
	}
	if err := bridge.Delete(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestResolveID(t *testing.T) {
	bridge, backend, _ := newTestBridge(t)
	backend.seed("mix", "music/a.mp3")

	name, err := bridge.ResolveID(context.Background(), index.PlaylistID("mix"))
	if err != nil {
		t.Fatalf("resolving id: %v", err)
	}
	if name != "mix" {
		t.Fatalf("name = %q, want mix", name)
	}
}

func TestListPropagatesBackendFailure(t *testing.T) {
	bridge, backend, _ := newTestBridge(t)
	backend.fail = mpd.ErrConnectionLost
	if _, err := bridge.List(context.Background()); !errors.Is(err, mpd.ErrConnectionLost) {
		t.Fatalf("error = %v, want the backend failure", err)
	}
}
