// Package config loads server settings from the environment and an optional
// YAML file. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bull/ebook-search-mcp/internal/storage"
)

const (
	ServerName    = "mcp-search-ebooks"
	ServerVersion = "0.4.0"

	defaultKomgaURL = "http://localhost:25600"
	defaultCacheDir = "~/.mcp-search-ebooks-cache"
	defaultPort     = "8080"
	defaultRPS      = 10
)

// ErrMissingCredentials is returned when the Komga username or password is unset.
var ErrMissingCredentials = errors.New("KOMGA_USERNAME and KOMGA_PASSWORD must be set")

// Config holds all runtime settings.
type Config struct {
	KomgaURL               string
	KomgaUsername          string
	KomgaPassword          string
	KomgaLibrary           string
	KomgaRequestsPerSecond float64

	CacheDir      string
	CoalesceLoads bool

	Port       string
	ServerMode bool
	LogLevel   slog.Level
}

// ChaptersDir is the disk tier for EPUB chapters.
func (c *Config) ChaptersDir() string {
	return filepath.Join(c.CacheDir, storage.KindChapters)
}

// PagesDir is the disk tier for simulated text pages.
func (c *Config) PagesDir() string {
	return filepath.Join(c.CacheDir, storage.KindPages)
}

// fileConfig is the YAML layout of EBOOKS_CONFIG.
type fileConfig struct {
	Komga struct {
		URL               string  `yaml:"url"`
		Username          string  `yaml:"username"`
		Password          string  `yaml:"password"`
		Library           string  `yaml:"library"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"komga"`
	Cache struct {
		Dir           string `yaml:"dir"`
		CoalesceLoads bool   `yaml:"coalesce_loads"`
	} `yaml:"cache"`
	Server struct {
		Port     string `yaml:"port"`
		HTTPMode bool   `yaml:"http_mode"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level"`
}

// Load reads the configuration.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("EBOOKS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		KomgaURL:               getEnv("KOMGA_URL", or(file.Komga.URL, defaultKomgaURL)),
		KomgaUsername:          getEnv("KOMGA_USERNAME", file.Komga.Username),
		KomgaPassword:          getEnv("KOMGA_PASSWORD", file.Komga.Password),
		KomgaLibrary:           getEnv("KOMGA_LIBRARY", file.Komga.Library),
		KomgaRequestsPerSecond: getEnvFloat("KOMGA_REQUESTS_PER_SECOND", orFloat(file.Komga.RequestsPerSecond, defaultRPS)),
		CacheDir:               getEnv("EBOOKS_CACHE_DIR", or(file.Cache.Dir, defaultCacheDir)),
		CoalesceLoads:          getEnvBool("EBOOKS_COALESCE_LOADS", file.Cache.CoalesceLoads),
		Port:                   getEnv("PORT", or(file.Server.Port, defaultPort)),
		ServerMode:             getEnvBool("SERVER_MODE", file.Server.HTTPMode),
	}

	level := getEnv("LOG_LEVEL", or(file.LogLevel, "info"))
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	dir, err := expandHome(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	cfg.CacheDir = dir

	if cfg.KomgaUsername == "" || cfg.KomgaPassword == "" {
		return nil, ErrMissingCredentials
	}
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
