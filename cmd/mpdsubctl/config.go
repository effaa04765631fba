package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// fileConfig holds CLI configuration from mpdsubctl.toml.
type fileConfig struct {
	Server   string `toml:"server"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// loadFileConfig loads mpdsubctl.toml if present. A missing file
// returns an empty config.
func loadFileConfig() (fileConfig, error) {
	path, err := configPath()
	if err != nil {
		return fileConfig{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	if info.IsDir() {
		return fileConfig{}, errors.New("config path is a directory")
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func configPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mpdsub", "mpdsubctl.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mpdsub", "mpdsubctl.toml"), nil
}
