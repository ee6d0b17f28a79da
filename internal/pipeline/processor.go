package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"

	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

// TokenEvicter is the optional cache-eviction hook of the resolver, used when
// dead-token cleanup is enabled.
type TokenEvicter interface {
	Evict(ctx context.Context, userID string)
}

// ProcessorOptions tunes the handler behaviour.
type ProcessorOptions struct {
	// CleanupDeadTokens clears a token from the user profile (and the cache)
	// once FCM reports it unregistered. Off by default: the next delivery
	// attempt for that user will simply hit the same dead token.
	CleanupDeadTokens bool
}

// NewProcessor builds the per-event handler: validate the snapshot, resolve
// the owner's token, compose the lifecycle message, dispatch it.
//
// Every path after the validation stage acks the message (returns nil).
// Delivery is at-most-once: an expected absence, a dead token, and even a
// transient send failure are all logged and dropped, never retried. The
// handler is stateless, so a duplicate delivery from the feed just produces
// a duplicate notification, which is acceptable.
func NewProcessor(
	resolver dispatch.TokenResolver,
	dispatcher dispatch.Dispatcher,
	profiles dispatch.ProfileStore,
	opts ProcessorOptions,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[task.ChangeEvent] {

	return func(ctx context.Context, original messagepipeline.Message, ev *task.ChangeEvent) error {
		procLogger := logger.With(
			"task_id", ev.TaskID,
			"change_kind", string(ev.Kind),
			"pubsub_msg_id", original.ID,
		)

		// 1. Validate
		snapshot := ev.Snapshot()
		if snapshot == nil {
			procLogger.Error("No task data found in change event")
			return nil
		}
		if snapshot.UserID == "" {
			procLogger.Error("Task does not have an associated user")
			return nil
		}

		// 2. Resolve
		token, ok, err := resolver.Resolve(ctx, snapshot.UserID)
		if err != nil {
			procLogger.Error("Token resolution failed", "user_id", snapshot.UserID, "err", err)
			return nil
		}
		if !ok {
			procLogger.Warn("No destination token for user; dropping notification.", "user_id", snapshot.UserID)
			return nil
		}

		// 3. Dispatch
		content := contentFor(ev.Kind, snapshot.Title)
		data := map[string]string{
			"taskId":    ev.TaskID,
			"taskTitle": snapshot.Title,
			"dueDate":   snapshot.DueDate,
		}

		outcome, err := dispatcher.Dispatch(ctx, token, content, data)
		switch outcome {
		case dispatch.TokenUnregistered:
			procLogger.Warn("Destination token unregistered; notification skipped.", "user_id", snapshot.UserID)
			if opts.CleanupDeadTokens {
				cleanupToken(ctx, profiles, resolver, snapshot.UserID, procLogger)
			}
		case dispatch.Failed:
			procLogger.Error("Notification dispatch failed", "err", err)
		case dispatch.Delivered:
			procLogger.Info("Notification delivered", "user_id", snapshot.UserID)
		}
		return nil
	}
}

// contentFor composes the event-specific display payload.
func contentFor(kind task.ChangeKind, title string) notification.NotificationContent {
	switch kind {
	case task.ChangeCreated:
		return notification.NotificationContent{
			Title: "New Task Created",
			Body:  fmt.Sprintf("Your new task %q has been created.", title),
		}
	case task.ChangeUpdated:
		return notification.NotificationContent{
			Title: "Task Updated",
			Body:  fmt.Sprintf("Your task %q has been updated.", title),
		}
	default:
		return notification.NotificationContent{
			Title: "Task Deleted",
			Body:  fmt.Sprintf("Your task %q has been deleted.", title),
		}
	}
}

// cleanupToken removes a dead token from the profile so the next resolve
// reports an expected absence instead of re-sending into the void.
func cleanupToken(ctx context.Context, profiles dispatch.ProfileStore, resolver dispatch.TokenResolver, userID string, logger *slog.Logger) {
	if err := profiles.ClearToken(ctx, userID); err != nil {
		logger.Warn("Failed to clear dead token from profile", "user_id", userID, "err", err)
		return
	}
	if evicter, canEvict := resolver.(TokenEvicter); canEvict {
		evicter.Evict(ctx, userID)
	}
	logger.Info("Cleared dead token from profile", "user_id", userID)
}
