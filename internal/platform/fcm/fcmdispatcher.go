package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"

	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Dispatcher struct {
	client MessagingClient
	logger *slog.Logger
}

// NewDispatcher accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewDispatcher(client MessagingClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.With("component", "FCMDispatcher"),
	}
}

// Dispatch sends a single-token message with exactly {title, body} as the
// display payload and classifies the outcome. A dead token is a normal
// result, not an error: the caller decides whether to clean it up. There are
// no retries here — delivery is at-most-once and best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, token string, content notification.NotificationContent, data map[string]string) (dispatch.Outcome, error) {
	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: content.Title,
			Body:  content.Body,
		},
	}

	id, err := d.client.Send(ctx, msg)
	if err != nil {
		// The token is garbage: uninstalled app or rotated registration.
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			d.logger.Warn("Destination token rejected by FCM", "title", content.Title, "err", err)
			return dispatch.TokenUnregistered, nil
		}
		return dispatch.Failed, fmt.Errorf("fcm send failed: %w", err)
	}

	d.logger.Info("Notification dispatched", "title", content.Title, "body", content.Body, "message_id", id)
	return dispatch.Delivered, nil
}
