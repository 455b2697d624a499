// Package firestore implements the token store on Google Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/matchday/go-push-relay/pkg/dispatch"
	"github.com/matchday/go-push-relay/pkg/push"
)

const profilesCollection = "profiles"

// FirestoreStore implements dispatch.TokenStore. Each user profile document
// holds at most one push token; registering a new device overwrites it.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// profileRecord is the internal DB representation of the token fields on a
// user profile.
type profileRecord struct {
	PushToken string    `firestore:"push_token"`
	Platform  string    `firestore:"push_platform,omitempty"`
	UpdatedAt time.Time `firestore:"push_token_updated_at"`
}

func (s *FirestoreStore) GetToken(ctx context.Context, userID string) (string, error) {
	doc, err := s.profileRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", dispatch.ErrTokenNotFound
		}
		return "", fmt.Errorf("firestore get profile: %w", err)
	}

	var record profileRecord
	if err := doc.DataTo(&record); err != nil {
		return "", fmt.Errorf("firestore decode profile: %w", err)
	}
	if record.PushToken == "" {
		return "", dispatch.ErrTokenNotFound
	}
	return record.PushToken, nil
}

func (s *FirestoreStore) AllTokens(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(profilesCollection).Documents(ctx)
	defer iter.Stop()

	var tokens []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record profileRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped, not fatal for a broadcast.
			continue
		}
		if record.PushToken != "" {
			tokens = append(tokens, record.PushToken)
		}
	}
	return tokens, nil
}

func (s *FirestoreStore) RegisterToken(ctx context.Context, userID, token string) error {
	// MergeAll (which requires a map) so registration never clobbers the
	// rest of the profile document.
	_, err := s.profileRef(userID).Set(ctx, map[string]any{
		"push_token":            token,
		"push_platform":         string(push.Classify(token)),
		"push_token_updated_at": time.Now(),
	}, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) UnregisterToken(ctx context.Context, userID string) error {
	_, err := s.profileRef(userID).Update(ctx, []firestore.Update{
		{Path: "push_token", Value: firestore.Delete},
		{Path: "push_platform", Value: firestore.Delete},
	})
	if err != nil && status.Code(err) == codes.NotFound {
		// Unregister is idempotent.
		return nil
	}
	return err
}

func (s *FirestoreStore) profileRef(userID string) *firestore.DocumentRef {
	return s.client.Collection(profilesCollection).Doc(userID)
}
