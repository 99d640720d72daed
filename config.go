package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the process-wide configuration. It is read once at startup
// and immutable afterwards; every component receives the values it needs at
// construction time.
type Settings struct {
	GitHubAppID         int64  `yaml:"github_app_id"`
	GitHubPrivateKeyPath string `yaml:"github_private_key_path"`
	GitHubWebhookSecret string `yaml:"github_webhook_secret"`
	Port                string `yaml:"port"`
	Environment         string `yaml:"environment"`
	CacheEnabled        bool   `yaml:"cache_enabled"`
	CacheTTLSeconds     int    `yaml:"cache_ttl_seconds"`
	MaxCacheSize        int    `yaml:"max_cache_size"`
	MetricsMaxSamples   int    `yaml:"metrics_max_samples"`

	// Private key material from the environment takes precedence over the
	// key file; it is never written to the config file.
	privateKeyContent string
}

// loadSettings builds Settings from defaults, an optional YAML config file
// and environment-variable overrides, in that order.
func loadSettings(path string) (*Settings, error) {
	s := &Settings{
		GitHubPrivateKeyPath: "private-key.pem",
		Port:                 defaultPort,
		Environment:          "development",
		CacheEnabled:         true,
		CacheTTLSeconds:      int(defaultCacheTTL.Seconds()),
		MaxCacheSize:         defaultMaxCacheSize,
		MetricsMaxSamples:    defaultMetricsSamples,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		log.Printf("[CONFIG] Loaded configuration from %s", path)
	}

	s.applyEnv()

	if s.GitHubAppID < 0 || s.GitHubAppID > maxAppID {
		return nil, fmt.Errorf("invalid GitHub App ID: %d", s.GitHubAppID)
	}
	if s.CacheTTLSeconds <= 0 {
		return nil, errors.New("cache TTL must be positive")
	}
	if s.MaxCacheSize <= 0 {
		return nil, errors.New("max cache size must be positive")
	}
	if s.MetricsMaxSamples <= 0 {
		return nil, errors.New("metrics window size must be positive")
	}

	return s, nil
}

// applyEnv overlays environment variables onto the settings.
func (s *Settings) applyEnv() {
	if v := os.Getenv("GITHUB_APP_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.GitHubAppID = id
		} else {
			log.Printf("[CONFIG] Ignoring invalid GITHUB_APP_ID: %q", v)
		}
	}
	if v := os.Getenv("GITHUB_PRIVATE_KEY_PATH"); v != "" {
		s.GitHubPrivateKeyPath = v
	}
	if v := os.Getenv("GITHUB_PRIVATE_KEY"); v != "" {
		s.privateKeyContent = v
	}
	if v := os.Getenv("GITHUB_WEBHOOK_SECRET"); v != "" {
		s.GitHubWebhookSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		s.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		s.Environment = v
	}
	if v := os.Getenv("ENABLE_CACHE"); v != "" {
		s.CacheEnabled = v == "true" || v == "1"
	}
	s.applyEnvInt("CACHE_TTL_SECONDS", &s.CacheTTLSeconds)
	s.applyEnvInt("MAX_CACHE_SIZE", &s.MaxCacheSize)
	s.applyEnvInt("METRICS_MAX_SAMPLES", &s.MetricsMaxSamples)
}

func (*Settings) applyEnvInt(name string, target *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[CONFIG] Ignoring invalid %s: %q", name, v)
		return
	}
	*target = n
}

// cacheTTL returns the configured TTL as a duration.
func (s *Settings) cacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// privateKey returns the GitHub App private key, preferring the environment
// over the key file.
func (s *Settings) privateKey() ([]byte, error) {
	if s.privateKeyContent != "" {
		return []byte(s.privateKeyContent), nil
	}
	data, err := os.ReadFile(s.GitHubPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", s.GitHubPrivateKeyPath, err)
	}
	return data, nil
}
