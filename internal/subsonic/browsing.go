package subsonic

import (
	"net/http"
	"strconv"

	"github.com/mikey-austin/mpdsub/internal/catalog"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func (s *Server) handleGetIndexes(w http.ResponseWriter, r *http.Request) {
	idx, err := s.catalog.Indexes()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.Indexes{
		LastModified:    idx.BuiltAt.UnixMilli(),
		IgnoredArticles: ignoredArticles,
	}
	for _, group := range idx.Groups {
		entry := wire.Index{Name: group.Name}
		for _, ar := range group.Artists {
			entry.Artist = append(entry.Artist, artistEntry(ar, ann))
		}
		out.Index = append(out.Index, entry)
	}

	resp := wire.NewResponse()
	resp.Indexes = out
	s.render(w, r, resp)
}

func (s *Server) handleGetArtists(w http.ResponseWriter, r *http.Request) {
	idx, err := s.catalog.Indexes()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.ArtistsID3{IgnoredArticles: ignoredArticles}
	for _, group := range idx.Groups {
		entry := wire.IndexID3{Name: group.Name}
		for _, ar := range group.Artists {
			entry.Artist = append(entry.Artist, artistID3(ar, ann))
		}
		out.Index = append(out.Index, entry)
	}

	resp := wire.NewResponse()
	resp.Artists = out
	s.render(w, r, resp)
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ar, albums, err := s.catalog.Artist(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.ArtistWithAlbums{ArtistID3: artistID3(ar, ann)}
	for _, al := range albums {
		out.Album = append(out.Album, albumID3(al, ann))
	}

	resp := wire.NewResponse()
	resp.Artist = out
	s.render(w, r, resp)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	al, tracks, err := s.catalog.Album(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.AlbumWithSongs{AlbumID3: albumID3(al, ann)}
	for _, t := range tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}

	resp := wire.NewResponse()
	resp.Album = out
	s.render(w, r, resp)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, err := formValue(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.catalog.Track(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	child := childFromTrack(t, ann)
	resp := wire.NewResponse()
	resp.Song = &child
	s.render(w, r, resp)
}

func (s *Server) handleGetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.catalog.Genres()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := &wire.Genres{}
	for _, g := range genres {
		out.Genre = append(out.Genre, wire.Genre{
			SongCount:  len(g.Tracks),
			AlbumCount: len(g.Albums),
			Value:      g.Name,
		})
	}
	resp := wire.NewResponse()
	resp.Genres = out
	s.render(w, r, resp)
}

// albumListRequest reads the shared getAlbumList parameter set.
func albumListRequest(r *http.Request) (catalog.AlbumListRequest, error) {
	listType, err := formValue(r, "type")
	if err != nil {
		return catalog.AlbumListRequest{}, err
	}
	req := catalog.AlbumListRequest{
		Type:   listType,
		Size:   intValue(r, "size"),
		Offset: intValue(r, "offset"),
		Genre:  r.FormValue("genre"),
	}
	if v, ok := optionalInt(r, "fromYear"); ok {
		req.FromYear = &v
	}
	if v, ok := optionalInt(r, "toYear"); ok {
		req.ToYear = &v
	}
	return req, nil
}

func (s *Server) handleGetAlbumList(w http.ResponseWriter, r *http.Request) {
	req, err := albumListRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	albums, err := s.catalog.AlbumList(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.AlbumList{}
	for _, al := range albums {
		out.Album = append(out.Album, childFromAlbum(al, ann))
	}
	resp := wire.NewResponse()
	resp.AlbumList = out
	s.render(w, r, resp)
}

func (s *Server) handleGetAlbumList2(w http.ResponseWriter, r *http.Request) {
	req, err := albumListRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	albums, err := s.catalog.AlbumList(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.AlbumList2{}
	for _, al := range albums {
		out.Album = append(out.Album, albumID3(al, ann))
	}
	resp := wire.NewResponse()
	resp.AlbumList2 = out
	s.render(w, r, resp)
}

func (s *Server) handleGetRandomSongs(w http.ResponseWriter, r *http.Request) {
	var fromYear, toYear *int
	if v, ok := optionalInt(r, "fromYear"); ok {
		fromYear = &v
	}
	if v, ok := optionalInt(r, "toYear"); ok {
		toYear = &v
	}
	tracks, err := s.catalog.RandomSongs(intValue(r, "size"), r.FormValue("genre"), fromYear, toYear)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.Songs{}
	for _, t := range tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.RandomSongs = out
	s.render(w, r, resp)
}

func (s *Server) handleGetStarred(w http.ResponseWriter, r *http.Request) {
	content, err := s.catalog.Starred(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.starredAnnotations(content)

	out := &wire.Starred{}
	for _, ar := range content.Artists {
		out.Artist = append(out.Artist, artistEntry(ar, ann))
	}
	for _, al := range content.Albums {
		out.Album = append(out.Album, childFromAlbum(al, ann))
	}
	for _, t := range content.Tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.Starred = out
	s.render(w, r, resp)
}

func (s *Server) handleGetStarred2(w http.ResponseWriter, r *http.Request) {
	content, err := s.catalog.Starred(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.starredAnnotations(content)

	out := &wire.Starred2{}
	for _, ar := range content.Artists {
		out.Artist = append(out.Artist, artistID3(ar, ann))
	}
	for _, al := range content.Albums {
		out.Album = append(out.Album, albumID3(al, ann))
	}
	for _, t := range content.Tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.Starred2 = out
	s.render(w, r, resp)
}

// starredAnnotations reuses the times the starred listing already
// carries instead of asking the daemon again.
func (s *Server) starredAnnotations(content *catalog.StarredContent) catalog.Annotations {
	return catalog.Annotations{Starred: content.When}
}

// intValue reads an optional integer parameter; absent or malformed
// yields zero.
func intValue(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.FormValue(name))
	return n
}

// optionalInt distinguishes an absent parameter from zero.
func optionalInt(r *http.Request, name string) (int, bool) {
	v := r.FormValue(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
