package fanout_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matchday/go-push-relay/internal/fanout"
	"github.com/matchday/go-push-relay/pkg/push"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, tokens []string, content push.Content, data map[string]any) []push.Outcome {
	args := m.Called(ctx, tokens, content, data)
	return args.Get(0).([]push.Outcome)
}

func deliveredOutcomes(tokens []string, provider push.Provider) []push.Outcome {
	outcomes := make([]push.Outcome, 0, len(tokens))
	for _, t := range tokens {
		outcomes = append(outcomes, push.Delivered(t, provider, "ticket"))
	}
	return outcomes
}

func TestCoordinatorDispatch(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	content := push.Content{Title: "Game tonight", Body: "7pm at the usual pitch"}
	fcmToken := strings.Repeat("f", 60)

	t.Run("Empty token list returns zero result without gateway calls", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		fcmMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, fcmMock, logger)

		result, err := c.Dispatch(ctx, nil, content, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Empty(t, result.Outcomes)
		expoMock.AssertNotCalled(t, "Dispatch")
		fcmMock.AssertNotCalled(t, "Dispatch")
	})

	t.Run("Missing title or body is a precondition error", func(t *testing.T) {
		c := fanout.NewCoordinator(new(mockDispatcher), new(mockDispatcher), logger)

		_, err := c.Dispatch(ctx, []string{"ExponentPushToken[a]"}, push.Content{Body: "b"}, nil)
		assert.ErrorIs(t, err, fanout.ErrMissingContent)

		_, err = c.Dispatch(ctx, []string{"ExponentPushToken[a]"}, push.Content{Title: "t"}, nil)
		assert.ErrorIs(t, err, fanout.ErrMissingContent)
	})

	t.Run("Mixed tokens route to both providers, outcome order expo then fcm", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		fcmMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, fcmMock, logger)

		expoTokens := []string{"ExponentPushToken[x]"}
		expoMock.On("Dispatch", mock.Anything, expoTokens, mock.Anything, mock.Anything).
			Return(deliveredOutcomes(expoTokens, push.ProviderExpo))
		fcmMock.On("Dispatch", mock.Anything, []string{fcmToken}, mock.Anything, mock.Anything).
			Return(deliveredOutcomes([]string{fcmToken}, push.ProviderFCM))

		// Interleaved input: fcm token first.
		result, err := c.Dispatch(ctx, []string{fcmToken, "ExponentPushToken[x]"}, content, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 2, result.Total)
		require.Len(t, result.Outcomes, 2)
		assert.Equal(t, "ExponentPushToken[x]", result.Outcomes[0].Token)
		assert.Equal(t, fcmToken, result.Outcomes[1].Token)
		expoMock.AssertExpectations(t)
		fcmMock.AssertExpectations(t)
	})

	t.Run("Unknown tokens become failures without any dispatcher call", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		fcmMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, fcmMock, logger)

		result, err := c.Dispatch(ctx, []string{""}, content, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Total)
		require.Len(t, result.Outcomes, 1)
		assert.Equal(t, push.ProviderUnknown, result.Outcomes[0].Provider)
		assert.Equal(t, "unrecognized token format", result.Outcomes[0].Reason)
		expoMock.AssertNotCalled(t, "Dispatch")
		fcmMock.AssertNotCalled(t, "Dispatch")
	})

	t.Run("Unconfigured FCM fails its tokens but Expo still dispatches", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, nil, logger)

		expoTokens := []string{"ExponentPushToken[a]"}
		expoMock.On("Dispatch", mock.Anything, expoTokens, mock.Anything, mock.Anything).
			Return(deliveredOutcomes(expoTokens, push.ProviderExpo))

		result, err := c.Dispatch(ctx, []string{"ExponentPushToken[a]", fcmToken}, content, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Outcomes, 2)
		assert.True(t, result.Outcomes[0].Success)
		assert.Equal(t, "fcm provider not configured", result.Outcomes[1].Reason)
		expoMock.AssertExpectations(t)
	})

	t.Run("Provider failures stay inside the result", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		fcmMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, fcmMock, logger)

		prunable := push.Failed("ExponentPushToken[gone]", push.ProviderExpo, "DeviceNotRegistered")
		prunable.Prunable = true
		expoMock.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]push.Outcome{prunable})

		result, err := c.Dispatch(ctx, []string{"ExponentPushToken[gone]"}, content, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 1, result.Failed)
		assert.True(t, result.Outcomes[0].Prunable)
	})

	t.Run("Sound defaults to the platform default", func(t *testing.T) {
		expoMock := new(mockDispatcher)
		c := fanout.NewCoordinator(expoMock, nil, logger)

		var gotContent push.Content
		expoMock.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				gotContent = args.Get(2).(push.Content)
			}).
			Return(deliveredOutcomes([]string{"ExponentPushToken[a]"}, push.ProviderExpo))

		_, err := c.Dispatch(ctx, []string{"ExponentPushToken[a]"}, content, nil)

		require.NoError(t, err)
		assert.Equal(t, push.DefaultSound, gotContent.Sound)
	})
}
