// Package fcm provides the client for Firebase Cloud Messaging.
package fcm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/matchday/go-push-relay/pkg/push"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
// Note: *messaging.Client automatically satisfies it.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Dispatcher struct {
	client MessagingClient
	logger *slog.Logger
}

func NewDispatcher(client MessagingClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.With("component", "FCMDispatcher"),
	}
}

// Dispatch sends the notification to a batch of FCM tokens in one multicast
// call. We don't chunk here: the SDK enforces its own multicast limit and the
// caller's batches stay well under it.
//
// A transport failure converts every token in the call into a failure
// outcome; the sibling provider's dispatch is unaffected.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) []push.Outcome {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   stringifyData(data),
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     content.Sound,
				ChannelID: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: content.Sound,
				},
			},
		},
	}

	br, err := d.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		d.logger.Error("FCM transport failed", "token_count", len(tokens), "err", err)
		outcomes := make([]push.Outcome, 0, len(tokens))
		reason := fmt.Sprintf("fcm transport failed: %v", err)
		for _, token := range tokens {
			outcomes = append(outcomes, push.Failed(token, push.ProviderFCM, reason))
		}
		return outcomes
	}

	// Responses map 1:1 to the submitted token list, in order.
	outcomes := make([]push.Outcome, 0, len(tokens))
	for i, token := range tokens {
		if i >= len(br.Responses) {
			outcomes = append(outcomes, push.Failed(token, push.ProviderFCM, "missing response from gateway"))
			continue
		}
		outcomes = append(outcomes, responseOutcome(token, br.Responses[i]))
	}

	if br.FailureCount > 0 {
		d.logger.Warn("FCM multicast partial failure",
			"success", br.SuccessCount,
			"failed", br.FailureCount,
		)
	}
	return outcomes
}

func responseOutcome(token string, resp *messaging.SendResponse) push.Outcome {
	if resp.Success {
		return push.Delivered(token, push.ProviderFCM, resp.MessageID)
	}

	outcome := push.Failed(token, push.ProviderFCM, resp.Error.Error())
	// The token itself is garbage; signal cleanup to the caller.
	if messaging.IsRegistrationTokenNotRegistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
		outcome.Prunable = true
	}
	return outcome
}

// stringifyData coerces every payload value to a string. FCM rejects
// non-string data values, so numbers and booleans are formatted and composite
// values are carried as JSON.
func stringifyData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case bool, int, int32, int64, float32, float64:
			out[k] = fmt.Sprintf("%v", val)
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprintf("%v", val)
				continue
			}
			out[k] = string(encoded)
		}
	}
	return out
}
