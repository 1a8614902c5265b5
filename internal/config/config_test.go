package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.DataDir != "." {
		t.Errorf("DataDir = %q, want .", cfg.DataDir)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 5s", cfg.ShutdownTimeout)
	}
	if cfg.RateLimit != 0 || cfg.RateWindow != time.Minute {
		t.Errorf("rate = %d/%s, want 0/1m", cfg.RateLimit, cfg.RateWindow)
	}
	if !cfg.Metrics {
		t.Error("Metrics should default to true")
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := t.TempDir()

	t.Setenv("CSV_SERVER_ADDR", "0.0.0.0:8080")
	t.Setenv("CSV_SERVER_DATA_DIR", dataDir)
	t.Setenv("CSV_SERVER_LOG_FORMAT", "JSON")
	t.Setenv("CSV_SERVER_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CSV_SERVER_RATE_LIMIT", "100")
	t.Setenv("CSV_SERVER_METRICS", "false")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dataDir)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.RateLimit != 100 {
		t.Errorf("RateLimit = %d, want 100", cfg.RateLimit)
	}
	if cfg.Metrics {
		t.Error("Metrics should be disabled")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "addr: 127.0.0.1:6000\nlog-level: debug\nrate-limit: 10\nrate-window: 30s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != "127.0.0.1:6000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != 30*time.Second {
		t.Errorf("rate = %d/%s, want 10/30s", cfg.RateLimit, cfg.RateWindow)
	}
	if filepath.Base(cfg.ConfigFile) != "config.yaml" {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoad_ExplicitConfigFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("CSV_SERVER_ADDR", "localhost")
	t.Setenv("CSV_SERVER_LOG_LEVEL", "loud")
	t.Setenv("CSV_SERVER_DATA_DIR", filepath.Join(t.TempDir(), "nope"))
	t.Setenv("CSV_SERVER_RATE_LIMIT", "-1")

	_, err := Load(viper.New(), "")
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %T is not a *ValidationError", err)
	}
	if len(verr.Fields) != 4 {
		t.Errorf("got %d field errors, want 4: %v", len(verr.Fields), err)
	}
	for _, field := range []string{OptionNameAddr, OptionNameLogLevel, OptionNameDataDir, OptionNameRateLimit} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}
