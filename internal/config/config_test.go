package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		DefaultSession:  "work",
		ServerURL:       "https://api.example.com",
		MessagePageSize: 30,
		RequestTimeout:  Duration{5 * time.Second},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.ServerURL != "https://api.example.com" {
		t.Errorf("ServerURL = %q", loaded.ServerURL)
	}
	if loaded.MessagePageSize != 30 {
		t.Errorf("MessagePageSize = %d, want 30", loaded.MessagePageSize)
	}
	if loaded.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", loaded.RequestTimeout.Duration)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadOrDefaultFillsMissingFields(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_session = \"alt\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultSession != "alt" {
		t.Errorf("DefaultSession = %q, want alt", cfg.DefaultSession)
	}
	if cfg.MessagePageSize != 20 {
		t.Errorf("MessagePageSize = %d, want default 20", cfg.MessagePageSize)
	}
	if cfg.ServerURL != Defaults().ServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.RequestTimeout.Duration != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout.Duration)
	}
}

func TestEnvOverridesServerURL(t *testing.T) {
	t.Setenv(EnvServerURL, "https://override.test")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "https://override.test" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}
}

func TestEnvOverridesFrontendURL(t *testing.T) {
	t.Setenv(EnvFrontendURL, "https://yovo.test")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FrontendURL != "https://yovo.test" {
		t.Errorf("FrontendURL = %q, want env override", cfg.FrontendURL)
	}
}

func TestLogLevelDefaultAndEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}

	t.Setenv(EnvLogLevel, "debug")
	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultSession: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
