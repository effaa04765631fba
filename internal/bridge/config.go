package bridge

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for mpdsubd.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Auth         AuthConfig         `toml:"auth"`
	MPD          MPDConfig          `toml:"mpd"`
	Library      LibraryConfig      `toml:"library"`
	Transcode    TranscodeConfig    `toml:"transcode"`
	Log          LogConfig          `toml:"log"`
	Events       EventsConfig       `toml:"events"`
	ListenBrainz ListenBrainzConfig `toml:"listenbrainz"`
	Podcasts     PodcastsConfig     `toml:"podcasts"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// AuthConfig holds the static API credentials.
type AuthConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// MPDConfig describes how to reach the MPD server.
type MPDConfig struct {
	Address        string `toml:"address"`
	Password       string `toml:"password"`
	TimeoutMS      int64  `toml:"timeout_ms"`
	ReconnectMinMS int64  `toml:"reconnect_min_ms"`
	ReconnectMaxMS int64  `toml:"reconnect_max_ms"`
}

// LibraryConfig locates the music files MPD indexes. Root accepts a
// plain path, an http(s):// base URL, or an s3://bucket/prefix URL.
type LibraryConfig struct {
	Root string   `toml:"root"`
	S3   S3Config `toml:"s3"`
}

// S3Config holds credentials for s3:// library roots. The endpoint,
// bucket and prefix come from the root URL itself.
type S3Config struct {
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// TranscodeConfig configures the external encoder.
type TranscodeConfig struct {
	FFmpeg string `toml:"ffmpeg"`
}

// LogConfig describes logging options.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// EventsConfig configures the optional MQTT change-event publisher.
type EventsConfig struct {
	Broker         string `toml:"broker"`
	EmbeddedListen string `toml:"embedded_listen"`
	TopicBase      string `toml:"topic_base"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
}

// ListenBrainzConfig configures scrobble forwarding.
type ListenBrainzConfig struct {
	Token string `toml:"token"`
	URL   string `toml:"url"`
}

// PodcastsConfig lists feeds served through the podcast endpoints.
type PodcastsConfig struct {
	Feeds       []string `toml:"feeds"`
	RefreshMins int      `toml:"refresh_mins"`
}

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns a config with defaults applied and nothing else.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:3000"
	}
	if c.MPD.Address == "" {
		c.MPD.Address = "127.0.0.1:6600"
	}
	if c.MPD.TimeoutMS == 0 {
		c.MPD.TimeoutMS = 5000
	}
	if c.MPD.ReconnectMinMS == 0 {
		c.MPD.ReconnectMinMS = 500
	}
	if c.MPD.ReconnectMaxMS == 0 {
		c.MPD.ReconnectMaxMS = 30000
	}
	if c.Transcode.FFmpeg == "" {
		c.Transcode.FFmpeg = "ffmpeg"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Events.TopicBase == "" {
		c.Events.TopicBase = "mpdsub/v1"
	}
	if c.ListenBrainz.URL == "" {
		c.ListenBrainz.URL = "https://api.listenbrainz.org"
	}
	if c.Podcasts.RefreshMins == 0 {
		c.Podcasts.RefreshMins = 60
	}
}

// ApplyEnv overlays MPDSUB_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"MPDSUB_LISTEN", &cfg.Server.Listen},
		{"MPDSUB_USERNAME", &cfg.Auth.Username},
		{"MPDSUB_PASSWORD", &cfg.Auth.Password},
		{"MPDSUB_MPD_ADDRESS", &cfg.MPD.Address},
		{"MPDSUB_MPD_PASSWORD", &cfg.MPD.Password},
		{"MPDSUB_LIBRARY", &cfg.Library.Root},
		{"MPDSUB_S3_ACCESS_KEY", &cfg.Library.S3.AccessKey},
		{"MPDSUB_S3_SECRET_KEY", &cfg.Library.S3.SecretKey},
		{"MPDSUB_LISTENBRAINZ_TOKEN", &cfg.ListenBrainz.Token},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	if c.Auth.Username == "" {
		return errors.New("auth username required")
	}
	if c.Auth.Password == "" {
		return errors.New("auth password required")
	}
	if c.Library.Root == "" {
		return errors.New("library root required")
	}
	return nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mpdsub", "mpdsubd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mpdsub", "mpdsubd.toml"), nil
}
