package config

import (
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlExpoConfig struct {
	GatewayURL  string `yaml:"gateway_url"`
	AccessToken string `yaml:"access_token"`
	BatchSize   int    `yaml:"batch_size"`
}

type YamlFirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID      string             `yaml:"project_id"`
	ListenAddr     string             `yaml:"listen_addr"`
	ExpoConfig     YamlExpoConfig     `yaml:"expo"`
	FirebaseConfig YamlFirebaseConfig `yaml:"firebase"`
	RedisConfig    YamlRedisConfig    `yaml:"redis"`
	CorsConfig     YamlCorsConfig     `yaml:"cors"`
	TokenCacheTTL  string             `yaml:"token_cache_ttl"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:  baseCfg.ProjectID,
		ListenAddr: baseCfg.ListenAddr,
		Expo: ExpoConfig{
			GatewayURL:  baseCfg.ExpoConfig.GatewayURL,
			AccessToken: baseCfg.ExpoConfig.AccessToken,
			BatchSize:   baseCfg.ExpoConfig.BatchSize,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: baseCfg.FirebaseConfig.CredentialsFile,
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
	}

	if baseCfg.TokenCacheTTL != "" {
		ttl, err := time.ParseDuration(baseCfg.TokenCacheTTL)
		if err != nil {
			logger.Warn("Invalid token_cache_ttl in YAML, using default", "value", baseCfg.TokenCacheTTL, "err", err)
		} else {
			cfg.TokenCacheTTL = ttl
		}
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
	)
	return cfg, nil
}
