// Package pipeline contains the core message processing components for the
// service: the transformer that decodes task change events off the feed and
// the processor that reacts to them.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

// TaskChangeTransformer is a dataflow Transformer that safely unmarshals a
// raw message payload into a structured task.ChangeEvent.
//
// A payload that cannot be decoded, or that names an unknown change kind, is
// returned with skip=true so the StreamingService can handle the Nack/DLQ
// logic — the process itself never fails on a poison message.
func TaskChangeTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*task.ChangeEvent, bool, error) {
	var ev task.ChangeEvent

	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal task change event from message %s: %w", msg.ID, err)
	}

	if !ev.Kind.Valid() {
		return nil, true, fmt.Errorf("message %s carries unknown change kind %q", msg.ID, ev.Kind)
	}

	return &ev, false, nil
}
