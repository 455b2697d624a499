package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/matchday/go-push-relay/pkg/dispatch"
	"github.com/matchday/go-push-relay/pkg/push"
)

// NotifyAPI exposes the relay's send endpoints. It owns the translation of
// aggregate results and precondition failures into HTTP statuses; below this
// layer, failures are data.
type NotifyAPI struct {
	Coordinator        dispatch.Coordinator
	Store              dispatch.TokenStore
	FirebaseConfigured bool
	Logger             *slog.Logger
}

func NewNotifyAPI(coordinator dispatch.Coordinator, store dispatch.TokenStore, firebaseConfigured bool, logger *slog.Logger) *NotifyAPI {
	return &NotifyAPI{
		Coordinator:        coordinator,
		Store:              store,
		FirebaseConfigured: firebaseConfigured,
		Logger:             logger,
	}
}

type sendRequest struct {
	UserID  string         `json:"userId"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Sound   string         `json:"sound"`
}

type sendResponse struct {
	Success     bool `json:"success"`
	SentCount   int  `json:"sentCount"`
	FailedCount int  `json:"failedCount"`
	TotalTokens int  `json:"totalTokens,omitempty"`
}

// SendBroadcast delivers one notification to every registered token.
func (api *NotifyAPI) SendBroadcast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Title == "" || req.Message == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "title and message are required")
		return
	}

	tokens, err := api.Store.AllTokens(ctx)
	if err != nil {
		api.Logger.Error("Broadcast token listing failed", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "failed to load recipients")
		return
	}
	if len(tokens) == 0 {
		response.WriteJSONError(w, http.StatusNotFound, "no recipients with push tokens")
		return
	}

	result, err := api.Coordinator.Dispatch(ctx, tokens, push.Content{
		Title: req.Title,
		Body:  req.Message,
		Sound: req.Sound,
	}, req.Data)
	if err != nil {
		api.Logger.Error("Broadcast dispatch failed", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{
		Success:     true,
		SentCount:   result.Success,
		FailedCount: result.Failed,
		TotalTokens: result.Total,
	})
}

// SendGameInvitation delivers a game invitation to a single user. The data
// payload is tagged so the app can route the tap to the invitation screen.
func (api *NotifyAPI) SendGameInvitation(w http.ResponseWriter, r *http.Request) {
	api.sendToUser(w, r, "game_invitation", true)
}

// SendUserNotification delivers a plain notification to a single user.
func (api *NotifyAPI) SendUserNotification(w http.ResponseWriter, r *http.Request) {
	api.sendToUser(w, r, "", false)
}

func (api *NotifyAPI) sendToUser(w http.ResponseWriter, r *http.Request, notificationType string, includeTotal bool) {
	ctx := r.Context()

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.Title == "" || req.Message == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "userId, title and message are required")
		return
	}

	token, err := api.Store.GetToken(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, dispatch.ErrTokenNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "user has no push token")
			return
		}
		api.Logger.Error("Token lookup failed", "user_id", req.UserID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "token lookup failed")
		return
	}

	data := req.Data
	if notificationType != "" {
		if data == nil {
			data = make(map[string]any, 1)
		}
		data["type"] = notificationType
	}

	result, err := api.Coordinator.Dispatch(ctx, []string{token}, push.Content{
		Title: req.Title,
		Body:  req.Message,
		Sound: req.Sound,
	}, data)
	if err != nil {
		api.Logger.Error("User dispatch failed", "user_id", req.UserID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	resp := sendResponse{
		Success:     true,
		SentCount:   result.Success,
		FailedCount: result.Failed,
	}
	if includeTotal {
		resp.TotalTokens = result.Total
	}
	writeJSON(w, http.StatusOK, resp)
}

type registerRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// RegisterToken upserts the caller's device token on their profile.
func (api *NotifyAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "userId and token are required")
		return
	}
	if push.Classify(req.Token) == push.ProviderUnknown {
		response.WriteJSONError(w, http.StatusBadRequest, "unrecognized token format")
		return
	}

	if err := api.Store.RegisterToken(ctx, req.UserID, req.Token); err != nil {
		api.Logger.Error("Token registration failed", "user_id", req.UserID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnregisterToken removes the caller's device token.
func (api *NotifyAPI) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := api.Store.UnregisterToken(ctx, req.UserID); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("Token unregistration failed", "user_id", req.UserID, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness plus whether the FCM path is configured.
func (api *NotifyAPI) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "OK",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"firebaseConfigured": api.FirebaseConfigured,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
