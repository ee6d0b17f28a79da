// Package events publishes task change events onto the Pub/Sub change feed.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"

	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

// Publisher is the subset of the Pub/Sub publisher API we use, mockable for
// unit testing.
type Publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// PubsubPublisher implements task.EventPublisher by JSON-encoding the event
// onto the configured topic.
type PubsubPublisher struct {
	publisher Publisher
}

func NewPubsubPublisher(client *pubsub.Client, topicID string) *PubsubPublisher {
	return &PubsubPublisher{publisher: client.Publisher(topicID)}
}

// NewPubsubPublisherWithPublisher exists for tests.
func NewPubsubPublisherWithPublisher(p Publisher) *PubsubPublisher {
	return &PubsubPublisher{publisher: p}
}

// Publish blocks until the message is accepted by the server, so callers get
// a definite outcome before deciding how to log it.
func (p *PubsubPublisher) Publish(ctx context.Context, ev task.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event %s: %w", ev, err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: payload})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish change event %s: %w", ev, err)
	}
	return nil
}
