// Package task contains the domain model for user tasks and the change
// events emitted when a task document is created, updated, or deleted.
package task

import (
	"context"
	"errors"
	"fmt"
)

// Task is a single to-do item owned by one user. The ID is assigned by the
// store on creation; ID and UserID are immutable afterwards.
type Task struct {
	ID          string `json:"id" firestore:"id"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
	DueDate     string `json:"dueDate" firestore:"dueDate"`
	UserID      string `json:"userId" firestore:"userId"`
}

// Validate enforces the persistence invariant: a task without an owning user
// or a title is rejected before it ever reaches the store.
func (t Task) Validate() error {
	if t.UserID == "" {
		return errors.New("task must have an owning userId")
	}
	if t.Title == "" {
		return errors.New("task must have a title")
	}
	return nil
}

// ChangeKind identifies which lifecycle transition a ChangeEvent describes.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Valid reports whether the kind is one of the three known transitions.
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
		return true
	}
	return false
}

// ChangeEvent is the wire form of a task-document change delivered on the
// change feed. Created events carry After only, deleted events Before only,
// and updated events both.
type ChangeEvent struct {
	TaskID string     `json:"taskId"`
	Kind   ChangeKind `json:"kind"`
	Before *Task      `json:"before,omitempty"`
	After  *Task      `json:"after,omitempty"`
}

// Snapshot returns the task state a handler should act on: the post-change
// snapshot for created/updated, the final pre-delete snapshot for deleted.
func (e ChangeEvent) Snapshot() *Task {
	if e.Kind == ChangeDeleted {
		return e.Before
	}
	return e.After
}

// ErrNotFound is returned by Store lookups when no task exists for the ID.
var ErrNotFound = errors.New("task not found")

// Store defines the contract for task persistence.
type Store interface {
	// Create validates the task, assigns it a fresh ID, and persists it.
	// The stored task (with its ID) is returned.
	Create(ctx context.Context, t Task) (Task, error)

	// Get performs a point lookup by task ID.
	Get(ctx context.Context, id string) (Task, error)

	// Update rewrites the mutable fields (title, description, due date) of
	// an existing task. The owning user and ID are never changed.
	Update(ctx context.Context, t Task) error

	// Delete removes the task. Deleting an absent task is not an error.
	Delete(ctx context.Context, id string) error

	// ListForUser returns all tasks owned by the given user.
	ListForUser(ctx context.Context, userID string) ([]Task, error)
}

// EventPublisher pushes a ChangeEvent onto the change feed for the
// notification pipeline to consume.
type EventPublisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// String implements fmt.Stringer for log lines.
func (e ChangeEvent) String() string {
	return fmt.Sprintf("%s:%s", e.Kind, e.TaskID)
}
