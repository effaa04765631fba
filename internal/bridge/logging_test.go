package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdsubd.log")

	logger := NewLogger(LogConfig{Level: "info", File: path})
	logger.Info("sink check")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "sink check") {
		t.Fatalf("log file misses the entry: %q", data)
	}
}

func TestNewLoggerLevelGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdsubd.log")

	logger := NewLogger(LogConfig{Level: "error", File: path})
	logger.Info("should be filtered")
	logger.Error("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "should be filtered") {
		t.Fatal("info entry leaked past the error level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatalf("error entry missing: %q", data)
	}
}

func TestBuildVersion(t *testing.T) {
	version, commit := BuildVersion()
	if version == "" || commit == "" {
		t.Fatalf("version = %q, commit = %q", version, commit)
	}
}
