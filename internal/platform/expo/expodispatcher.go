// Package expo provides the client for the Expo push gateway.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/matchday/go-push-relay/pkg/push"
)

// DefaultGatewayURL is Expo's public push endpoint. No credential is
// required; an access token only raises the gateway's rate limits.
const DefaultGatewayURL = "https://exp.host/--/api/v2/push/send"

// The gateway rejects requests with more than 100 messages.
const maxBatchSize = 100

// reasonDeviceNotRegistered is the ticket error code for a token whose
// device has uninstalled the app. Callers may prune such tokens.
const reasonDeviceNotRegistered = "DeviceNotRegistered"

// Config holds the gateway settings for the dispatcher.
type Config struct {
	GatewayURL  string
	AccessToken string
	// BatchSize overrides the chunk size, capped at the gateway limit.
	// Zero means the gateway maximum.
	BatchSize int
	Timeout   time.Duration
}

type Dispatcher struct {
	url         string
	accessToken string
	batchSize   int
	client      *http.Client
	logger      *slog.Logger
}

func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	url := cfg.GatewayURL
	if url == "" {
		url = DefaultGatewayURL
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		url:         url,
		accessToken: cfg.AccessToken,
		batchSize:   batchSize,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.With("component", "ExpoDispatcher"),
	}
}

// pushMessage is the gateway's wire format, one message per token.
type pushMessage struct {
	To        string         `json:"to"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Sound     string         `json:"sound,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  string         `json:"priority,omitempty"`
	ChannelID string         `json:"channelId,omitempty"`
}

// pushTicket is the gateway's per-message receipt, returned in request order.
type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Dispatch sends the notification to a batch of Expo tokens. Tokens are
// chunked to the gateway's batch limit and chunks are sent sequentially.
// A chunk-level transport failure yields failure outcomes for every token in
// that chunk; sibling chunks still go out.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) []push.Outcome {
	outcomes := make([]push.Outcome, 0, len(tokens))

	for start := 0; start < len(tokens); start += d.batchSize {
		end := start + d.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		tickets, err := d.sendChunk(ctx, chunk, content, data)
		if err != nil {
			d.logger.Error("Expo chunk failed",
				"chunk_start", start,
				"chunk_size", len(chunk),
				"err", err,
			)
			for _, token := range chunk {
				outcomes = append(outcomes, push.Failed(token, push.ProviderExpo, err.Error()))
			}
			continue
		}

		for i, token := range chunk {
			if i >= len(tickets) {
				// The gateway promises one ticket per message; guard anyway.
				outcomes = append(outcomes, push.Failed(token, push.ProviderExpo, "missing ticket in gateway response"))
				continue
			}
			outcomes = append(outcomes, ticketOutcome(token, tickets[i]))
		}
	}

	return outcomes
}

func (d *Dispatcher) sendChunk(ctx context.Context, chunk []string, content push.Content, data map[string]any) ([]pushTicket, error) {
	messages := make([]pushMessage, 0, len(chunk))
	for _, token := range chunk {
		messages = append(messages, pushMessage{
			To:        token,
			Title:     content.Title,
			Body:      content.Body,
			Sound:     content.Sound,
			Data:      data,
			Priority:  "high",
			ChannelID: "default",
		})
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.accessToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo transport failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the payload is not a ticket list.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("expo gateway returned status %d", resp.StatusCode)
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode expo response: %w", err)
	}
	return parsed.Data, nil
}

func ticketOutcome(token string, ticket pushTicket) push.Outcome {
	if ticket.Status == "ok" {
		return push.Delivered(token, push.ProviderExpo, ticket.ID)
	}

	reason := ticket.Details.Error
	if reason == "" {
		reason = ticket.Message
	}
	outcome := push.Failed(token, push.ProviderExpo, reason)
	outcome.Prunable = ticket.Details.Error == reasonDeviceNotRegistered
	return outcome
}
