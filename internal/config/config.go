// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package config loads and validates the application configuration from
// layered sources: built-in defaults, an optional YAML file, and environment
// variables, in ascending precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Realtime   RealtimeConfig   `koanf:"realtime"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// StoreConfig controls the embedded document store.
type StoreConfig struct {
	// Path is the on-disk store directory. Empty means in-memory, which is
	// what tests and local development use.
	Path string `koanf:"path"`
}

// CacheConfig controls the shared TTL cache.
type CacheConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// EnrichmentConfig controls the enrichment pipeline.
type EnrichmentConfig struct {
	GeocodeTTL      time.Duration `koanf:"geocode_ttl"`
	DefaultTTL      time.Duration `koanf:"default_ttl"`
	ProviderTimeout time.Duration `koanf:"provider_timeout"`
	// ResourceRadiusKm is the default nearby-resource search radius.
	ResourceRadiusKm float64 `koanf:"resource_radius_km"`
}

// RateLimitConfig sets per-IP request budgets for the three admission tiers.
// Health and readiness probes are never limited.
type RateLimitConfig struct {
	Disabled bool `koanf:"disabled"`

	// General covers standard CRUD traffic.
	GeneralRequests int           `koanf:"general_requests"`
	GeneralWindow   time.Duration `koanf:"general_window"`

	// Strict covers mutation-heavy endpoints.
	StrictRequests int           `koanf:"strict_requests"`
	StrictWindow   time.Duration `koanf:"strict_window"`

	// AI covers enrichment endpoints that hit external providers.
	AIRequests int           `koanf:"ai_requests"`
	AIWindow   time.Duration `koanf:"ai_window"`
}

// RealtimeConfig controls the WebSocket layer and its client contract.
type RealtimeConfig struct {
	// DebounceWindow is the per-topic debounce clients should apply; it is
	// advertised to clients on connect.
	DebounceWindow time.Duration `koanf:"debounce_window"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in defaults without consulting a config file or
// the environment. Tests and tooling use this as a known-good baseline.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns the built-in defaults, applied before file and
// environment overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Path: "/data/disasters",
		},
		Cache: CacheConfig{
			SweepInterval: 5 * time.Minute,
		},
		Enrichment: EnrichmentConfig{
			GeocodeTTL:       24 * time.Hour,
			DefaultTTL:       time.Hour,
			ProviderTimeout:  5 * time.Second,
			ResourceRadiusKm: 10,
		},
		RateLimit: RateLimitConfig{
			Disabled:        false,
			GeneralRequests: 100,
			GeneralWindow:   15 * time.Minute,
			StrictRequests:  10,
			StrictWindow:    time.Minute,
			AIRequests:      5,
			AIWindow:        time.Minute,
		},
		Realtime: RealtimeConfig{
			DebounceWindow: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Enrichment.GeocodeTTL <= 0 || c.Enrichment.DefaultTTL <= 0 {
		return fmt.Errorf("enrichment TTLs must be positive")
	}
	if c.Enrichment.ProviderTimeout <= 0 {
		return fmt.Errorf("enrichment.provider_timeout must be positive")
	}
	if c.Enrichment.ResourceRadiusKm <= 0 {
		return fmt.Errorf("enrichment.resource_radius_km must be positive")
	}
	if !c.RateLimit.Disabled {
		if c.RateLimit.GeneralRequests < 1 || c.RateLimit.StrictRequests < 1 || c.RateLimit.AIRequests < 1 {
			return fmt.Errorf("rate limit request budgets must be at least 1")
		}
		if c.RateLimit.GeneralWindow <= 0 || c.RateLimit.StrictWindow <= 0 || c.RateLimit.AIWindow <= 0 {
			return fmt.Errorf("rate limit windows must be positive")
		}
	}
	if c.Realtime.DebounceWindow < 0 {
		return fmt.Errorf("realtime.debounce_window must not be negative")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
