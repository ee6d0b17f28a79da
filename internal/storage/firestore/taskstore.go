package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

// TaskStore implements task.Store over the tasks collection.
type TaskStore struct {
	client *firestore.Client
}

func NewTaskStore(client *firestore.Client) *TaskStore {
	return &TaskStore{client: client}
}

func (s *TaskStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}

	t.ID = uuid.NewString()
	if _, err := s.taskRef(t.ID).Set(ctx, t); err != nil {
		return task.Task{}, fmt.Errorf("task create failed: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	doc, err := s.taskRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("task read for %s failed: %w", id, err)
	}

	var t task.Task
	if err := doc.DataTo(&t); err != nil {
		return task.Task{}, fmt.Errorf("task decode for %s failed: %w", id, err)
	}
	return t, nil
}

// Update rewrites the mutable fields only. The owning user and the ID are
// immutable after creation, so they never appear in the update paths.
func (s *TaskStore) Update(ctx context.Context, t task.Task) error {
	_, err := s.taskRef(t.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: t.Title},
		{Path: "description", Value: t.Description},
		{Path: "dueDate", Value: t.DueDate},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return task.ErrNotFound
		}
		return fmt.Errorf("task update for %s failed: %w", t.ID, err)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	// Firestore deletes are idempotent; deleting an absent doc succeeds.
	if _, err := s.taskRef(id).Delete(ctx); err != nil {
		return fmt.Errorf("task delete for %s failed: %w", id, err)
	}
	return nil
}

func (s *TaskStore) ListForUser(ctx context.Context, userID string) ([]task.Task, error) {
	iter := s.client.Collection("tasks").Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	tasks := make([]task.Task, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("task query for %s failed: %w", userID, err)
		}

		var t task.Task
		if err := doc.DataTo(&t); err != nil {
			// Safe to skip corrupt rows.
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (s *TaskStore) taskRef(id string) *firestore.DocumentRef {
	return s.client.Collection("tasks").Doc(id)
}
