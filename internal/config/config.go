// Package config loads waw-events settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// dotenv file. Every setting has a default so the CLI runs with no setup.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/geoportal-waw/waw-events/internal/vocab"
)

const (
	DefaultBaseURL        = "https://waw4free.pl/"
	DefaultDatabaseURL    = "~/.local/share/waw-events/locations_cache.db"
	DefaultGeocodeURL     = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
	DefaultGeocodeSuffix  = ", Warszawa, Polska"
	DefaultAddressCacheSz = 100
)

// Config holds every runtime setting.
type Config struct {
	BaseURL          string
	HTTPTimeout      time.Duration
	DatabaseURL      string
	GeocodeURL       string
	GeocodeSuffix    string
	GeocodeRPS       float64
	GeocodeTimeout   time.Duration
	AddressCacheSize int
	VocabFile        string
	BindAddr         string
	KafkaBrokers     []string
	KafkaTopic       string
	LogLevel         string
}

// LoadDotenv seeds the environment from the given dotenv files. Missing files
// are ignored; variables already set in the environment win.
func LoadDotenv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from environment variables.
func Load() (*Config, error) {
	c := &Config{
		BaseURL:          getEnv("WAW_BASE_URL", DefaultBaseURL),
		HTTPTimeout:      getDuration("WAW_HTTP_TIMEOUT", "30s"),
		DatabaseURL:      getEnv("WAW_DATABASE_URL", DefaultDatabaseURL),
		GeocodeURL:       getEnv("WAW_GEOCODE_URL", DefaultGeocodeURL),
		GeocodeSuffix:    getEnvRaw("WAW_GEOCODE_SUFFIX", DefaultGeocodeSuffix),
		GeocodeRPS:       getFloat("WAW_GEOCODE_RPS", 1),
		GeocodeTimeout:   getDuration("WAW_GEOCODE_TIMEOUT", "10s"),
		AddressCacheSize: getInt("WAW_ADDRESS_CACHE_SIZE", DefaultAddressCacheSz),
		VocabFile:        getEnv("WAW_VOCAB_FILE", ""),
		BindAddr:         getEnv("WAW_BIND_ADDR", "0.0.0.0:8000"),
		KafkaBrokers:     splitAndTrim(getEnv("WAW_KAFKA_BROKERS", "")),
		KafkaTopic:       getEnv("WAW_KAFKA_TOPIC", "waw_events"),
		LogLevel:         getEnv("WAW_LOG_LEVEL", "info"),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("WAW_BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("WAW_HTTP_TIMEOUT must be positive")
	}
	if c.GeocodeTimeout <= 0 {
		return fmt.Errorf("WAW_GEOCODE_TIMEOUT must be positive")
	}
	if c.GeocodeRPS <= 0 {
		return fmt.Errorf("WAW_GEOCODE_RPS must be positive")
	}
	if c.AddressCacheSize <= 0 {
		return fmt.Errorf("WAW_ADDRESS_CACHE_SIZE must be positive")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("WAW_DATABASE_URL cannot be empty")
	}
	return nil
}

// Vocabulary returns the configured vocabulary, or the built-in one when no
// file is set.
func (c *Config) Vocabulary() (*vocab.Vocabulary, error) {
	if c.VocabFile == "" {
		return vocab.Default(), nil
	}
	return vocab.Load(c.VocabFile)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// getEnvRaw keeps surrounding whitespace, which matters for suffixes.
func getEnvRaw(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
