// Package pushrelay assembles the relay: HTTP server, routes and the
// dispatch coordinator behind them.
package pushrelay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/matchday/go-push-relay/internal/api"
	"github.com/matchday/go-push-relay/pkg/dispatch"
	"github.com/matchday/go-push-relay/pushrelay/config"
)

type Wrapper struct {
	*microservice.BaseServer
	logger *slog.Logger
}

// New assembles the service.
func New(
	cfg *config.Config,
	coordinator dispatch.Coordinator,
	tokenStore dispatch.TokenStore,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. API
	notifyAPI := api.NewNotifyAPI(coordinator, tokenStore, cfg.FirebaseEnabled(), logger)

	// Register Routes
	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(handlerFunc))
	}

	// 1. Send Paths
	handle("POST /send-broadcast-notification", notifyAPI.SendBroadcast)
	handle("POST /send-game-invitation", notifyAPI.SendGameInvitation)
	handle("POST /send-user-notification", notifyAPI.SendUserNotification)

	// 2. Token Registration Paths
	handle("POST /register-token", notifyAPI.RegisterToken)
	handle("POST /unregister-token", notifyAPI.UnregisterToken)

	// 3. Health
	handle("GET /health", notifyAPI.Health)

	// 4. Global OPTIONS for CORS preflight
	mux.Handle("OPTIONS /", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Just returns 200 OK with CORS headers handled by middleware
	})))

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}, nil
}

func (w *Wrapper) Start(_ context.Context) error {
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	w.logger.Info("Service shutdown complete.")
	return nil
}
