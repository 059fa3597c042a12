package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// UCI engine configuration
	Engine EngineConfig `json:"engine"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `json:"rateLimit"`
}

type EngineConfig struct {
	BinaryPath string `json:"binaryPath"`
	HashMB     int    `json:"hashMB"`
	Depth      int    `json:"depth"`
	// HandshakeLineCap bounds how many lines are read while waiting for uciok,
	// so a non-UCI binary cannot hang the handshake.
	HandshakeLineCap    int     `json:"handshakeLineCap"`
	HandshakeTimeoutSec float64 `json:"handshakeTimeoutSec"`
	SearchTimeoutSec    float64 `json:"searchTimeoutSec"`
	CacheEntries        int     `json:"cacheEntries"`
}

type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	HealthAddr  string `json:"healthAddr"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Prefix string `json:"prefix"`
}

type RateLimitConfig struct {
	Enabled        bool           `json:"enabled"`
	RequestsPerMin int            `json:"requestsPerMin"`
	BurstSize      int            `json:"burstSize"`
	PerToolLimits  map[string]int `json:"perToolLimits"`
}

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		// Default values
		Engine: EngineConfig{
			BinaryPath:          "stockfish",
			HashMB:              128,
			Depth:               14,
			HandshakeLineCap:    512,
			HandshakeTimeoutSec: 10.0,
			SearchTimeoutSec:    60.0,
			CacheEntries:        4096,
		},
		Server: ServerConfig{
			Name:        "pgnview",
			Version:     "0.1.0",
			Description: "PGN game review with UCI engine analysis",
			HealthAddr:  ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Prefix: "[pgnview] ",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			BurstSize:      10,
			PerToolLimits:  make(map[string]int),
		},
	}

	// Load from JSON file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PGNVIEW_ENGINE_PATH"); v != "" {
		c.Engine.BinaryPath = v
	}
	if v := os.Getenv("PGNVIEW_ENGINE_DEPTH"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil {
			c.Engine.Depth = depth
		}
	}
	if v := os.Getenv("PGNVIEW_ENGINE_HASH_MB"); v != "" {
		if hash, err := strconv.Atoi(v); err == nil {
			c.Engine.HashMB = hash
		}
	}
	if v := os.Getenv("PGNVIEW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PGNVIEW_RATE_LIMIT_ENABLED"); v != "" {
		c.RateLimit.Enabled = strings.ToLower(v) == "true"
	}
}

func (c *Config) validate() error {
	// The binary path is only checked when absolute; bare names are resolved
	// against PATH at engine start.
	if filepath.IsAbs(c.Engine.BinaryPath) {
		if _, err := os.Stat(c.Engine.BinaryPath); err != nil {
			return fmt.Errorf("engine binary not found at %s", c.Engine.BinaryPath)
		}
	}

	// Clamp numeric ranges
	if c.Engine.HashMB < 16 {
		c.Engine.HashMB = 16
	}
	if c.Engine.Depth < 1 {
		c.Engine.Depth = 1
	}
	if c.Engine.HandshakeLineCap < 1 {
		c.Engine.HandshakeLineCap = 1
	}
	if c.Engine.HandshakeTimeoutSec < 0.1 {
		c.Engine.HandshakeTimeoutSec = 0.1
	}
	if c.Engine.SearchTimeoutSec < 1 {
		c.Engine.SearchTimeoutSec = 1
	}
	if c.Engine.CacheEntries < 0 {
		c.Engine.CacheEntries = 0
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin < 1 {
			c.RateLimit.RequestsPerMin = 1
		}
		if c.RateLimit.BurstSize < 1 {
			c.RateLimit.BurstSize = 1
		}
	}

	return nil
}

// GetConfigPath locates the config file: env var, then working directory,
// then the user's home directory.
func GetConfigPath() string {
	if path := os.Getenv("PGNVIEW_CONFIG"); path != "" {
		return path
	}

	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}

	if home, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(home, ".pgnview", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}
