//go:build integration

package firestore_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fs "github.com/tinywideclouds/go-task-notification-service/internal/storage/firestore"
	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

func setupSuite(t *testing.T) (context.Context, *firestore.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	projectID := "test-task-stores"
	conn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	client, err := firestore.NewClient(ctx, projectID, conn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ctx, client
}

func TestProfileStore_Integration(t *testing.T) {
	ctx, client := setupSuite(t)
	store := fs.NewProfileStore(client)

	t.Run("Token Lifecycle", func(t *testing.T) {
		// 1. Save
		err := store.SaveToken(ctx, "user-1", "token-android-1")
		require.NoError(t, err)

		// 2. Fetch
		token, err := store.FetchToken(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "token-android-1", token)

		// 3. Overwrite (token rotation)
		err = store.SaveToken(ctx, "user-1", "token-android-2")
		require.NoError(t, err)

		token, err = store.FetchToken(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "token-android-2", token)

		// 4. Clear
		err = store.ClearToken(ctx, "user-1")
		require.NoError(t, err)

		_, err = store.FetchToken(ctx, "user-1")
		assert.ErrorIs(t, err, dispatch.ErrNoToken)
	})

	t.Run("Missing profile", func(t *testing.T) {
		_, err := store.FetchToken(ctx, "nobody")
		assert.ErrorIs(t, err, dispatch.ErrProfileNotFound)
	})

	t.Run("Save preserves other profile fields", func(t *testing.T) {
		// Simulate a profile the client app created
		_, err := client.Collection("users").Doc("user-2").Set(ctx, map[string]interface{}{
			"name":  "Test User",
			"email": "test@example.com",
		})
		require.NoError(t, err)

		require.NoError(t, store.SaveToken(ctx, "user-2", "tok-2"))

		doc, err := client.Collection("users").Doc("user-2").Get(ctx)
		require.NoError(t, err)
		data := doc.Data()
		assert.Equal(t, "Test User", data["name"])
		assert.Equal(t, "tok-2", data["fcmToken"])
	})
}

func TestTaskStore_Integration(t *testing.T) {
	ctx, client := setupSuite(t)
	store := fs.NewTaskStore(client)

	t.Run("CRUD Lifecycle", func(t *testing.T) {
		// 1. Create assigns an ID
		created, err := store.Create(ctx, task.Task{
			Title:       "Buy milk",
			Description: "2 litres",
			DueDate:     "2026-09-01",
			UserID:      "user-1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		// 2. Get
		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		// 3. Update mutable fields only
		got.Title = "Buy oat milk"
		require.NoError(t, store.Update(ctx, got))

		updated, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", updated.Title)
		assert.Equal(t, "user-1", updated.UserID)

		// 4. Delete
		require.NoError(t, store.Delete(ctx, created.ID))
		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("Create rejects invalid tasks before persistence", func(t *testing.T) {
		_, err := store.Create(ctx, task.Task{UserID: "user-1"}) // no title
		require.Error(t, err)

		_, err = store.Create(ctx, task.Task{Title: "orphan"}) // no owner
		require.Error(t, err)
	})

	t.Run("ListForUser only returns the owner's tasks", func(t *testing.T) {
		_, err := store.Create(ctx, task.Task{Title: "mine", UserID: "owner-a"})
		require.NoError(t, err)
		_, err = store.Create(ctx, task.Task{Title: "also mine", UserID: "owner-a"})
		require.NoError(t, err)
		_, err = store.Create(ctx, task.Task{Title: "theirs", UserID: "owner-b"})
		require.NoError(t, err)

		tasks, err := store.ListForUser(ctx, "owner-a")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
		for _, got := range tasks {
			assert.Equal(t, "owner-a", got.UserID)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-existed"))
	})
}
