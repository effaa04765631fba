package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/artwork"
	"github.com/mikey-austin/mpdsub/internal/auth"
	"github.com/mikey-austin/mpdsub/internal/bridge"
	"github.com/mikey-austin/mpdsub/internal/catalog"
	"github.com/mikey-austin/mpdsub/internal/events"
	"github.com/mikey-austin/mpdsub/internal/index"
	"github.com/mikey-austin/mpdsub/internal/listenbrainz"
	"github.com/mikey-austin/mpdsub/internal/mpd"
	"github.com/mikey-austin/mpdsub/internal/playlists"
	"github.com/mikey-austin/mpdsub/internal/podcasts"
	"github.com/mikey-austin/mpdsub/internal/stream"
	"github.com/mikey-austin/mpdsub/internal/subsonic"
)

func main() {
	var (
		configPath  string
		listen      string
		mpdAddress  string
		libraryRoot string
		logLevel    string
		showVersion bool
		dryRun      bool
	)

	defaultConfig, err := bridge.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&listen, "listen", "", "API listen address override")
	flag.StringVar(&mpdAddress, "mpd", "", "MPD address override")
	flag.StringVar(&libraryRoot, "library", "", "library root override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	version, commit := bridge.BuildVersion()
	if showVersion {
		fmt.Printf("mpdsubd %s (%s)\n", version, commit)
		return
	}

	// A .env next to the working directory feeds the MPDSUB_* overlay.
	_ = godotenv.Load()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	bridge.ApplyEnv(&cfg)
	applyOverrides(&cfg, listen, mpdAddress, libraryRoot, logLevel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dryRun {
		return
	}

	logger := bridge.NewLogger(cfg.Log)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("mpdsubd starting",
		zap.String("version", version),
		zap.String("listen", cfg.Server.Listen),
		zap.String("mpd", cfg.MPD.Address),
		zap.String("library", cfg.Library.Root))

	modules, err := buildModules(cfg, logger, version)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}

	supervisor := bridge.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

// loadConfig reads the file when it exists and otherwise starts from
// defaults, leaving the env overlay and flags to fill in the rest.
func loadConfig(path string) (bridge.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return bridge.DefaultConfig(), nil
	}
	return bridge.LoadConfig(path)
}

func applyOverrides(cfg *bridge.Config, listen, mpdAddress, libraryRoot, logLevel string) {
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if mpdAddress != "" {
		cfg.MPD.Address = mpdAddress
	}
	if libraryRoot != "" {
		cfg.Library.Root = libraryRoot
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func buildModules(cfg bridge.Config, logger *zap.Logger, version string) ([]bridge.ModuleRunner, error) {
	mpdCfg := mpd.Config{
		Address:      cfg.MPD.Address,
		Password:     cfg.MPD.Password,
		Timeout:      time.Duration(cfg.MPD.TimeoutMS) * time.Millisecond,
		ReconnectMin: time.Duration(cfg.MPD.ReconnectMinMS) * time.Millisecond,
		ReconnectMax: time.Duration(cfg.MPD.ReconnectMaxMS) * time.Millisecond,
	}

	client, err := mpd.NewClient(logger.Named("mpd"), mpdCfg)
	if err != nil {
		return nil, err
	}
	indexWatcher, err := mpd.NewWatcher(logger.Named("watcher"), mpdCfg, "database")
	if err != nil {
		return nil, err
	}
	idx, err := index.New(logger.Named("index"), index.Config{}, client, indexWatcher.Events())
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(logger.Named("catalog"), idx, client)
	if err != nil {
		return nil, err
	}
	lists, err := playlists.New(logger.Named("playlists"), client, cat)
	if err != nil {
		return nil, err
	}
	library, err := stream.NewLibrary(logger.Named("library"), stream.Config{
		Root:        cfg.Library.Root,
		S3AccessKey: cfg.Library.S3.AccessKey,
		S3SecretKey: cfg.Library.S3.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	transcoder, err := stream.NewTranscoder(logger.Named("transcode"), cfg.Transcode.FFmpeg)
	if err != nil {
		return nil, err
	}
	pipeline, err := stream.NewPipeline(logger.Named("stream"), library, transcoder)
	if err != nil {
		return nil, err
	}
	art, err := artwork.New(logger.Named("artwork"), artwork.Config{}, client, cat, lists, library)
	if err != nil {
		return nil, err
	}

	gate, err := auth.New(logger.Named("auth"), auth.Config{
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})
	if err != nil {
		return nil, err
	}

	services := subsonic.Services{
		Gate:      gate,
		Catalog:   cat,
		Playlists: lists,
		Artwork:   art,
		Pipeline:  pipeline,
	}

	modules := []bridge.ModuleRunner{
		{Name: "mpd", Run: client.Run},
		{Name: "watcher", Run: indexWatcher.Run},
		{Name: "index", Run: idx.Run},
	}

	if cfg.ListenBrainz.Token != "" {
		scrobbler, err := listenbrainz.New(logger.Named("listenbrainz"), listenbrainz.Config{
			Token:   cfg.ListenBrainz.Token,
			BaseURL: cfg.ListenBrainz.URL,
			Version: version,
		})
		if err != nil {
			return nil, err
		}
		services.Scrobbler = scrobbler
	}

	if len(cfg.Podcasts.Feeds) > 0 {
		casts, err := podcasts.New(logger.Named("podcasts"), podcasts.Config{
			Feeds:   cfg.Podcasts.Feeds,
			Refresh: time.Duration(cfg.Podcasts.RefreshMins) * time.Minute,
		})
		if err != nil {
			return nil, err
		}
		services.Podcasts = casts
		modules = append(modules, bridge.ModuleRunner{Name: "podcasts", Run: casts.Run})
	}

	eventModules, err := buildEventModules(cfg, mpdCfg, logger, client)
	if err != nil {
		return nil, err
	}
	modules = append(modules, eventModules...)

	server, err := subsonic.New(logger.Named("api"), subsonic.Config{Listen: cfg.Server.Listen}, services)
	if err != nil {
		return nil, err
	}
	modules = append(modules, bridge.ModuleRunner{Name: "api", Run: server.Run})

	return modules, nil
}

// buildEventModules wires the optional MQTT side: an embedded broker
// when embedded_listen is set, and a publisher when any broker is
// reachable.
func buildEventModules(cfg bridge.Config, mpdCfg mpd.Config, logger *zap.Logger, client *mpd.Client) ([]bridge.ModuleRunner, error) {
	brokerURL := cfg.Events.Broker

	var modules []bridge.ModuleRunner
	if cfg.Events.EmbeddedListen != "" {
		broker, err := events.NewBroker(logger.Named("broker"), events.BrokerConfig{
			Listen:   cfg.Events.EmbeddedListen,
			Username: cfg.Events.Username,
			Password: cfg.Events.Password,
		})
		if err != nil {
			return nil, err
		}
		modules = append(modules, bridge.ModuleRunner{Name: "broker", Run: broker.Run})
		if brokerURL == "" {
			brokerURL = broker.URL()
		}
	}
	if brokerURL == "" {
		return modules, nil
	}

	eventWatcher, err := mpd.NewWatcher(logger.Named("event-watcher"), mpdCfg)
	if err != nil {
		return nil, err
	}
	publisher, err := events.NewPublisher(logger.Named("events"), events.Config{
		BrokerURL: brokerURL,
		TopicBase: cfg.Events.TopicBase,
		Username:  cfg.Events.Username,
		Password:  cfg.Events.Password,
	}, eventWatcher.Events(), client)
	if err != nil {
		return nil, err
	}
	modules = append(modules,
		bridge.ModuleRunner{Name: "event-watcher", Run: eventWatcher.Run},
		bridge.ModuleRunner{Name: "events", Run: publisher.Run},
	)
	return modules, nil
}
