// Package config holds the relay's layered configuration: YAML defaults
// overlaid with environment variables, validated once at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type ExpoConfig struct {
	GatewayURL  string
	AccessToken string
	BatchSize   int
}

type FirebaseConfig struct {
	// CredentialsFile points at the service-account JSON. Empty disables
	// the FCM dispatcher; the relay still serves Expo traffic.
	CredentialsFile string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID  string
	ListenAddr string

	Expo     ExpoConfig
	Firebase FirebaseConfig
	Redis    RedisConfig

	CorsConfig    middleware.CorsConfig
	TokenCacheTTL time.Duration
}

// FirebaseEnabled reports whether the FCM dispatcher should be constructed.
// Decided here, once, so the dispatch path never re-checks the environment.
func (c *Config) FirebaseEnabled() bool {
	return c.Firebase.CredentialsFile != ""
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}

	// Expo Overrides
	if val := os.Getenv("EXPO_GATEWAY_URL"); val != "" {
		cfg.Expo.GatewayURL = val
	}
	if val := os.Getenv("EXPO_ACCESS_TOKEN"); val != "" {
		cfg.Expo.AccessToken = val
	}
	if val := os.Getenv("EXPO_BATCH_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			cfg.Expo.BatchSize = size
		}
	}

	// Firebase Override
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "FIREBASE_CREDENTIALS_FILE", "source", "env")
		cfg.Firebase.CredentialsFile = val
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// Cache TTL Override
	if val := os.Getenv("TOKEN_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.TokenCacheTTL = ttl
		}
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.TokenCacheTTL <= 0 {
		cfg.TokenCacheTTL = time.Hour
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
