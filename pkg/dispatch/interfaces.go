// Package dispatch defines the contracts between the HTTP layer, the
// coordinator, the provider dispatchers and the token store.
package dispatch

import (
	"context"
	"errors"

	"github.com/matchday/go-push-relay/pkg/push"
)

// ErrTokenNotFound is returned by a TokenStore when a user has no push token
// registered.
var ErrTokenNotFound = errors.New("push token not found")

// Dispatcher sends one notification to a homogeneous batch of tokens for a
// single provider and reports a per-token outcome list.
//
// Transport failures are converted into failure outcomes, not returned as
// errors: failures are data at this layer, so one provider's outage can never
// abort the sibling provider's dispatch. Implementations must return exactly
// one outcome per input token, in input order.
type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) []push.Outcome
}

// Coordinator is the relay's public entry point: it classifies a
// heterogeneous token list, fans out to the provider dispatchers and merges
// their outcomes into one aggregate result.
type Coordinator interface {
	Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) (*push.Result, error)
}

// TokenStore manages the per-user device tokens the relay delivers to.
// Each user profile holds at most one push token; registering overwrites.
type TokenStore interface {
	// GetToken returns the user's current push token, or ErrTokenNotFound.
	GetToken(ctx context.Context, userID string) (string, error)

	// AllTokens returns every registered push token, for broadcast sends.
	AllTokens(ctx context.Context) ([]string, error)

	// RegisterToken adds or replaces the token for a user.
	RegisterToken(ctx context.Context, userID, token string) error

	// UnregisterToken removes the user's token. Removing an absent token
	// is not an error.
	UnregisterToken(ctx context.Context, userID string) error
}
