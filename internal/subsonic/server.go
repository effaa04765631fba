// Package subsonic is the HTTP boundary: it speaks the Subsonic REST
// protocol and maps each endpoint onto the bridge's services.
package subsonic

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/artwork"
	"github.com/mikey-austin/mpdsub/internal/auth"
	"github.com/mikey-austin/mpdsub/internal/catalog"
	"github.com/mikey-austin/mpdsub/internal/listenbrainz"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/podcasts"
	"github.com/mikey-austin/mpdsub/internal/stream"
)

// Config configures the HTTP listener.
type Config struct {
	Listen string
}

// Services collects everything the endpoints reach for. Scrobbler and
// Podcasts may be nil when not configured.
type Services struct {
	Gate      *auth.Gate
	Catalog   *catalog.Service
	Playlists *playlists.Bridge
	Artwork   *artwork.Service
	Pipeline  *stream.Pipeline
	Scrobbler *listenbrainz.Client
	Podcasts  *podcasts.Service
}

// Server carries the router and the services behind it.
type Server struct {
	log      *zap.Logger
	cfg      Config
	gate     *auth.Gate
	catalog  *catalog.Service
	lists    *playlists.Bridge
	art      *artwork.Service
	pipeline *stream.Pipeline
	scrobble *listenbrainz.Client
	casts    *podcasts.Service
	router   *mux.Router
}

// New wires the endpoint table.
func New(log *zap.Logger, cfg Config, svc Services) (*Server, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Listen == "" {
		return nil, errors.New("listen address required")
	}
	if svc.Gate == nil {
		return nil, errors.New("auth gate required")
	}
	if svc.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	if svc.Playlists == nil {
		return nil, errors.New("playlist bridge required")
	}
	if svc.Artwork == nil {
		return nil, errors.New("artwork service required")
	}
	if svc.Pipeline == nil {
		return nil, errors.New("stream pipeline required")
	}

	s := &Server{
		log:      log,
		cfg:      cfg,
		gate:     svc.Gate,
		catalog:  svc.Catalog,
		lists:    svc.Playlists,
		art:      svc.Artwork,
		pipeline: svc.Pipeline,
		scrobble: svc.Scrobbler,
		casts:    svc.Podcasts,
	}
	s.router = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// routes registers every endpoint under /rest, in both the bare and
// legacy .view spellings. Clients send GET or POST indiscriminately, so
// no method restriction.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	rest := r.PathPrefix("/rest").Subrouter()
	rest.Use(s.logRequests, s.authenticate)

	endpoints := map[string]http.HandlerFunc{
		"ping":            s.handlePing,
		"getLicense":      s.handleGetLicense,
		"getMusicFolders": s.handleGetMusicFolders,

		"getIndexes":     s.handleGetIndexes,
		"getArtists":     s.handleGetArtists,
		"getArtist":      s.handleGetArtist,
		"getAlbum":       s.handleGetAlbum,
		"getSong":        s.handleGetSong,
		"getGenres":      s.handleGetGenres,
		"getAlbumList":   s.handleGetAlbumList,
		"getAlbumList2":  s.handleGetAlbumList2,
		"getRandomSongs": s.handleGetRandomSongs,
		"getStarred":     s.handleGetStarred,
		"getStarred2":    s.handleGetStarred2,

		"search2": s.handleSearch2,
		"search3": s.handleSearch3,

		"stream":      s.handleStream,
		"download":    s.handleDownload,
		"getCoverArt": s.handleGetCoverArt,
		"getAvatar":   s.handleGetAvatar,

		"getPlaylists":   s.handleGetPlaylists,
		"getPlaylist":    s.handleGetPlaylist,
		"createPlaylist": s.handleCreatePlaylist,
		"updatePlaylist": s.handleUpdatePlaylist,
		"deletePlaylist": s.handleDeletePlaylist,

		"startScan":     s.handleStartScan,
		"getScanStatus": s.handleGetScanStatus,

		"star":      s.handleStar,
		"unstar":    s.handleUnstar,
		"setRating": s.handleSetRating,
		"scrobble":  s.handleScrobble,

		"getUser": s.handleGetUser,

		"getPodcasts":       s.handleGetPodcasts,
		"getNewestPodcasts": s.handleGetNewestPodcasts,
	}
	for name, handler := range endpoints {
		rest.HandleFunc("/"+name, handler)
		rest.HandleFunc("/"+name+".view", handler)
	}
	return r
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}

	server := &http.Server{Handler: s.router}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("http server stopped", zap.Error(err))
		}
	}()
	s.log.Info("api listening", zap.String("listen", ln.Addr().String()))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
