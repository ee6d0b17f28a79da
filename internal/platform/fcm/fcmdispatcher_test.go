package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"

	"github.com/tinywideclouds/go-task-notification-service/internal/platform/fcm"
	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
)

// MockClient satisfies the MessagingClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFCMDispatch_Lifecycle(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()
	content := notification.NotificationContent{Title: "Task Updated", Body: `Your task "x" has been updated.`}
	data := map[string]string{"taskId": "t-1"}

	t.Run("Happy Path - Delivered", func(t *testing.T) {
		mockClient := new(MockClient)
		dispatcher := fcm.NewDispatcher(mockClient, logger)

		mockClient.On("Send", ctx, mock.MatchedBy(func(msg *messaging.Message) bool {
			return msg.Token == "token-1" &&
				msg.Notification.Title == content.Title &&
				msg.Notification.Body == content.Body
		})).Return("msg-id-1", nil)

		outcome, err := dispatcher.Dispatch(ctx, "token-1", content, data)

		require.NoError(t, err)
		assert.Equal(t, dispatch.Delivered, outcome)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transport Failure", func(t *testing.T) {
		mockClient := new(MockClient)
		dispatcher := fcm.NewDispatcher(mockClient, logger)

		// Whole send fails (e.g. DNS error)
		mockClient.On("Send", ctx, mock.Anything).Return("", errors.New("network down"))

		outcome, err := dispatcher.Dispatch(ctx, "token-1", content, data)

		require.Error(t, err)
		assert.Equal(t, dispatch.Failed, outcome)
		assert.Contains(t, err.Error(), "fcm send failed")
	})

	// Note: We rely on the Integration Test to verify the specific parsing of
	// IsRegistrationTokenNotRegistered errors, as mocking the internal error types
	// of the Firebase SDK is brittle.
}
