package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvServerURL   = "YOVO_SERVER_URL"
	EnvFrontendURL = "YOVO_FRONTEND_URL"
	EnvLogLevel    = "YOVO_LOG_LEVEL"
)

// Config represents the global ~/.yovo/config.toml.
type Config struct {
	DefaultSession  string   `toml:"default_session"`
	ServerURL       string   `toml:"server_url"`
	FrontendURL     string   `toml:"frontend_url"`
	MessagePageSize int      `toml:"message_page_size"`
	RequestTimeout  Duration `toml:"request_timeout"`
	LogLevel        string   `toml:"log_level"`
}

// Duration is a time.Duration that decodes from TOML strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		ServerURL:       "http://localhost:5000",
		FrontendURL:     "http://localhost:5173",
		MessagePageSize: 20,
		RequestTimeout:  Duration{15 * time.Second},
		LogLevel:        "info",
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to Defaults when the file
// is missing. Unset fields are filled from Defaults and env overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
	}
	cfg.fill(Defaults())
	cfg.ApplyEnv()
	return cfg, nil
}

func (c *Config) fill(d *Config) {
	if c.ServerURL == "" {
		c.ServerURL = d.ServerURL
	}
	if c.FrontendURL == "" {
		c.FrontendURL = d.FrontendURL
	}
	if c.MessagePageSize <= 0 {
		c.MessagePageSize = d.MessagePageSize
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// ApplyEnv loads an optional .env from the working directory and applies
// environment overrides.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load(".env")
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvFrontendURL); v != "" {
		c.FrontendURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
