//go:build integration

package firestore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fs "github.com/matchday/go-push-relay/internal/storage/firestore"
	"github.com/matchday/go-push-relay/pkg/dispatch"
)

func setupSuite(t *testing.T) (context.Context, *fs.FirestoreStore) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	projectID := "test-token-store"
	conn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	client, err := firestore.NewClient(ctx, projectID, conn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ctx, fs.NewFirestoreStore(client)
}

func TestTokenStore_Integration(t *testing.T) {
	ctx, store := setupSuite(t)

	t.Run("Registration lifecycle", func(t *testing.T) {
		token := "ExponentPushToken[device-1]"
		require.NoError(t, store.RegisterToken(ctx, "user-1", token))

		got, err := store.GetToken(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, token, got)

		// Re-registering overwrites: one token per profile.
		replacement := strings.Repeat("x", 60)
		require.NoError(t, store.RegisterToken(ctx, "user-1", replacement))
		got, err = store.GetToken(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, replacement, got)

		require.NoError(t, store.UnregisterToken(ctx, "user-1"))
		_, err = store.GetToken(ctx, "user-1")
		assert.ErrorIs(t, err, dispatch.ErrTokenNotFound)
	})

	t.Run("Missing user maps to ErrTokenNotFound", func(t *testing.T) {
		_, err := store.GetToken(ctx, "nobody")
		assert.ErrorIs(t, err, dispatch.ErrTokenNotFound)
	})

	t.Run("Unregister is idempotent", func(t *testing.T) {
		assert.NoError(t, store.UnregisterToken(ctx, "never-registered"))
	})

	t.Run("AllTokens lists every registered token", func(t *testing.T) {
		require.NoError(t, store.RegisterToken(ctx, "user-a", "ExponentPushToken[a]"))
		require.NoError(t, store.RegisterToken(ctx, "user-b", strings.Repeat("b", 60)))

		tokens, err := store.AllTokens(ctx)
		require.NoError(t, err)
		assert.Contains(t, tokens, "ExponentPushToken[a]")
		assert.Contains(t, tokens, strings.Repeat("b", 60))
	})
}
