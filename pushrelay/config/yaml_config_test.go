package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchday/go-push-relay/pushrelay/config"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:  "yaml-project",
			ListenAddr: ":9000",
			ExpoConfig: config.YamlExpoConfig{
				GatewayURL:  "https://exp.host/--/api/v2/push/send",
				AccessToken: "yaml-expo-token",
				BatchSize:   50,
			},
			FirebaseConfig: config.YamlFirebaseConfig{
				CredentialsFile: "/etc/relay/fb.json",
			},
			RedisConfig: config.YamlRedisConfig{
				Addr:    "localhost:6379",
				Enabled: true,
				DB:      2,
			},
			CorsConfig: config.YamlCorsConfig{
				AllowedOrigins: []string{"http://yaml.com"},
				Role:           "editor",
			},
			TokenCacheTTL: "45m",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "yaml-project", cfg.ProjectID)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "https://exp.host/--/api/v2/push/send", cfg.Expo.GatewayURL)
		assert.Equal(t, "yaml-expo-token", cfg.Expo.AccessToken)
		assert.Equal(t, 50, cfg.Expo.BatchSize)
		assert.Equal(t, "/etc/relay/fb.json", cfg.Firebase.CredentialsFile)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, 45*time.Minute, cfg.TokenCacheTTL)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID: "minimal-project",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "minimal-project", cfg.ProjectID)
		assert.Empty(t, cfg.ListenAddr)
		assert.Empty(t, cfg.Firebase.CredentialsFile)
		assert.Zero(t, cfg.TokenCacheTTL)
	})

	t.Run("Invalid TTL string falls back to zero", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:     "p",
			TokenCacheTTL: "not-a-duration",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Zero(t, cfg.TokenCacheTTL)
	})
}
