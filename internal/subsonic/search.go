package subsonic

import (
	"net/http"

	"github.com/mikey-austin/mpdsub/internal/catalog"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

func searchRequest(r *http.Request) (catalog.SearchRequest, error) {
	query, err := formValue(r, "query")
	if err != nil {
		return catalog.SearchRequest{}, err
	}
	return catalog.SearchRequest{
		Query:        query,
		ArtistCount:  intValue(r, "artistCount"),
		ArtistOffset: intValue(r, "artistOffset"),
		AlbumCount:   intValue(r, "albumCount"),
		AlbumOffset:  intValue(r, "albumOffset"),
		SongCount:    intValue(r, "songCount"),
		SongOffset:   intValue(r, "songOffset"),
	}, nil
}

func (s *Server) handleSearch2(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.catalog.Search(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.SearchResult2{}
	for _, ar := range result.Artists {
		out.Artist = append(out.Artist, artistEntry(ar, ann))
	}
	for _, al := range result.Albums {
		out.Album = append(out.Album, childFromAlbum(al, ann))
	}
	for _, t := range result.Tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.SearchResult2 = out
	s.render(w, r, resp)
}

func (s *Server) handleSearch3(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.catalog.Search(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ann := s.annotations(r.Context())

	out := &wire.SearchResult3{}
	for _, ar := range result.Artists {
		out.Artist = append(out.Artist, artistID3(ar, ann))
	}
	for _, al := range result.Albums {
		out.Album = append(out.Album, albumID3(al, ann))
	}
	for _, t := range result.Tracks {
		out.Song = append(out.Song, childFromTrack(t, ann))
	}
	resp := wire.NewResponse()
	resp.SearchResult3 = out
	s.render(w, r, resp)
}
