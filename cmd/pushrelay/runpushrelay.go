package main

import (
	"context"
	_ "embed"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/matchday/go-push-relay/internal/fanout"
	"github.com/matchday/go-push-relay/internal/platform/expo"
	"github.com/matchday/go-push-relay/internal/platform/fcm"
	"github.com/matchday/go-push-relay/internal/storage/cache"
	fsStore "github.com/matchday/go-push-relay/internal/storage/firestore"
	"github.com/matchday/go-push-relay/pkg/dispatch"
	"github.com/matchday/go-push-relay/pushrelay"
	"github.com/matchday/go-push-relay/pushrelay/config"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-push-relay")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Token Store ---
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("Firestore client failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = fsClient.Close() }()

	var tokenStore dispatch.TokenStore = fsStore.NewFirestoreStore(fsClient)
	logger.Info("TokenStore initialized", "type", "firestore")

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		tokenStore = cache.NewCachedTokenStore(tokenStore, redisClient, cfg.TokenCacheTTL)
		logger.Info("TokenStore upgraded", "type", "redis_cached_firestore")
	}

	// --- Dispatchers ---

	// A. Expo (public gateway, no credential required)
	expoDispatcher := expo.NewDispatcher(expo.Config{
		GatewayURL:  cfg.Expo.GatewayURL,
		AccessToken: cfg.Expo.AccessToken,
		BatchSize:   cfg.Expo.BatchSize,
	}, logger)

	// B. FCM (optional; absence degrades, never crashes)
	var fcmDispatcher dispatch.Dispatcher
	if cfg.FirebaseEnabled() {
		fbApp, err := firebase.NewApp(ctx,
			&firebase.Config{ProjectID: cfg.ProjectID},
			option.WithCredentialsFile(cfg.Firebase.CredentialsFile),
		)
		if err != nil {
			logger.Error("Failed to initialize Firebase App", "err", err)
			os.Exit(1)
		}
		fcmMessaging, err := fbApp.Messaging(ctx)
		if err != nil {
			logger.Error("Failed to create FCM messaging client", "err", err)
			os.Exit(1)
		}
		fcmDispatcher = fcm.NewDispatcher(fcmMessaging, logger)
		logger.Info("FCM dispatcher enabled")
	} else {
		logger.Warn("Firebase credentials missing; FCM dispatch disabled")
	}

	// --- Coordinator & Service ---
	coordinator := fanout.NewCoordinator(expoDispatcher, fcmDispatcher, logger)

	service, err := pushrelay.New(cfg, coordinator, tokenStore, logger)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}
