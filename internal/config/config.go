package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Universe   int      `yaml:"universe"`
	Listen     string   `yaml:"listen"`
	Gate       bool     `yaml:"gate"`
	Volume     float64  `yaml:"volume"`
	MediaDir   string   `yaml:"media_dir"`
	Extensions []string `yaml:"extensions"`
	StatusAddr string   `yaml:"status_addr"`
	HistoryDSN string   `yaml:"history_dsn"`
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
	LogFile    string   `yaml:"log_file"`
	Playlist   Playlist `yaml:"playlist"`
}

// Playlist maps a program id to the media it selects
type Playlist map[int]Program

// Program describes one program: a base directory and its ordered files.
// The position of a file in Files is its sub-program id.
type Program struct {
	Dir      string   `yaml:"dir"`
	Files    []string `yaml:"files"`
	PlayMode string   `yaml:"playmode"`
}

// DefaultExtensions lists the media extensions the engine can decode
var DefaultExtensions = []string{".mp3", ".wav", ".flac"}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Universe:   1,
		Listen:     ":6454",
		Volume:     1.0,
		Extensions: append([]string(nil), DefaultExtensions...),
		LogLevel:   "info",
		LogFormat:  "text",
		Playlist:   Playlist{},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults and
// applies environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, pkgerrors.Wrapf(err, "read config file %s", path)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, pkgerrors.Wrapf(err, "parse config file %s", path)
		}
	}

	applyEnv(cfg)
	if cfg.Playlist == nil {
		cfg.Playlist = Playlist{}
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Universe = GetEnvInt("DMX_TRIGGER_UNIVERSE", cfg.Universe)
	cfg.Listen = GetEnv("DMX_TRIGGER_LISTEN", cfg.Listen)
	cfg.LogLevel = GetEnv("DMX_TRIGGER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = GetEnv("DMX_TRIGGER_LOG_FORMAT", cfg.LogFormat)
	cfg.StatusAddr = GetEnv("DMX_TRIGGER_STATUS_ADDR", cfg.StatusAddr)
	cfg.HistoryDSN = GetEnv("DMX_TRIGGER_HISTORY_DSN", cfg.HistoryDSN)
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("DMX_TRIGGER_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dmx-trigger", "config.yaml")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(home, ".config", "dmx-trigger", "config.yaml")
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// ExpandPath expands a leading ~ to the user's home directory and makes
// the result absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || (len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", pkgerrors.Wrap(err, "expand home directory")
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
