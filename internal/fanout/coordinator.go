// Package fanout contains the dispatch coordinator: it classifies a mixed
// token list, routes each partition to its provider dispatcher and merges the
// outcomes into one aggregate result.
package fanout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matchday/go-push-relay/pkg/dispatch"
	"github.com/matchday/go-push-relay/pkg/push"
)

// ErrMissingContent is returned when a dispatch is attempted without a title
// or body. This is the only precondition the coordinator enforces; delivery
// failures are always reported inside the result, never as an error.
var ErrMissingContent = errors.New("notification title and body are required")

const (
	reasonUnrecognizedToken = "unrecognized token format"
	reasonFCMUnconfigured   = "fcm provider not configured"
)

type Coordinator struct {
	expo   dispatch.Dispatcher
	fcm    dispatch.Dispatcher // nil when Firebase credentials are absent
	logger *slog.Logger
}

// NewCoordinator wires the provider dispatchers. Pass a nil FCM dispatcher
// when Firebase is unconfigured; the coordinator then reports FCM-classified
// tokens as failures instead of calling out. The degraded mode is logged here,
// once, not per request.
func NewCoordinator(expoDispatcher, fcmDispatcher dispatch.Dispatcher, logger *slog.Logger) *Coordinator {
	logger = logger.With("component", "DispatchCoordinator")
	if fcmDispatcher == nil {
		logger.Warn("FCM dispatcher not configured; FCM-classified tokens will be reported as failures")
	}
	return &Coordinator{
		expo:   expoDispatcher,
		fcm:    fcmDispatcher,
		logger: logger,
	}
}

// Dispatch classifies every token, fans out to the configured providers and
// aggregates the per-token outcomes.
//
// The result always satisfies Total == len(tokens), Success+Failed == Total
// and len(Outcomes) == len(tokens); outcomes are ordered expo partition
// first, then fcm, then unknown, each preserving input order. Stateless and
// safe to call concurrently.
func (c *Coordinator) Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) (*push.Result, error) {
	if content.Title == "" || content.Body == "" {
		return nil, ErrMissingContent
	}
	if content.Sound == "" {
		content.Sound = push.DefaultSound
	}

	result := &push.Result{Outcomes: make([]push.Outcome, 0, len(tokens))}
	if len(tokens) == 0 {
		return result, nil
	}

	var expoTokens, fcmTokens, unknownTokens []string
	for _, token := range tokens {
		switch push.Classify(token) {
		case push.ProviderExpo:
			expoTokens = append(expoTokens, token)
		case push.ProviderFCM:
			fcmTokens = append(fcmTokens, token)
		default:
			unknownTokens = append(unknownTokens, token)
		}
	}

	dispatchLogger := c.logger.With("dispatch_id", uuid.NewString())
	dispatchLogger.Info("Dispatching notification",
		"expo", len(expoTokens),
		"fcm", len(fcmTokens),
		"unknown", len(unknownTokens),
	)

	if len(expoTokens) > 0 {
		result.Add(c.expo.Dispatch(ctx, expoTokens, content, data)...)
	}

	if len(fcmTokens) > 0 {
		if c.fcm != nil {
			result.Add(c.fcm.Dispatch(ctx, fcmTokens, content, data)...)
		} else {
			for _, token := range fcmTokens {
				result.Add(push.Failed(token, push.ProviderFCM, reasonFCMUnconfigured))
			}
		}
	}

	for _, token := range unknownTokens {
		dispatchLogger.Warn("Unrecognized token format", "token", push.MaskToken(token))
		result.Add(push.Failed(token, push.ProviderUnknown, reasonUnrecognizedToken))
	}

	dispatchLogger.Info("Dispatch complete",
		"success", result.Success,
		"failed", result.Failed,
		"total", result.Total,
	)
	return result, nil
}
