package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
)

// TaskAPI exposes CRUD on the caller's own tasks. Every successful mutation
// publishes the matching change event onto the feed, which is what drives the
// notification pipeline. Publish failures after a committed write are logged
// and swallowed: notifications are best-effort, the write is not.
type TaskAPI struct {
	Store     task.Store
	Publisher task.EventPublisher
	Logger    *slog.Logger
}

func NewTaskAPI(store task.Store, publisher task.EventPublisher, logger *slog.Logger) *TaskAPI {
	return &TaskAPI{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
	}
}

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

func (api *TaskAPI) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	created, err := api.Store.Create(ctx, task.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		UserID:      userID,
	})
	if err != nil {
		// Validation failures (blank title) surface here before persistence.
		api.Logger.Warn("task create rejected", "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	api.publish(ctx, task.ChangeEvent{TaskID: created.ID, Kind: task.ChangeCreated, After: &created})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (api *TaskAPI) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tasks, err := api.Store.ListForUser(ctx, userID)
	if err != nil {
		api.Logger.Error("failed to list tasks", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tasks)
}

func (api *TaskAPI) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	found, ok := api.ownedTask(w, r, userID)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(found)
}

func (api *TaskAPI) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	existing, ok := api.ownedTask(w, r, userID)
	if !ok {
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Title == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "task must have a title")
		return
	}

	before := existing
	existing.Title = req.Title
	existing.Description = req.Description
	existing.DueDate = req.DueDate

	if err := api.Store.Update(ctx, existing); err != nil {
		api.Logger.Error("failed to update task", "task_id", existing.ID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	api.publish(ctx, task.ChangeEvent{TaskID: existing.ID, Kind: task.ChangeUpdated, Before: &before, After: &existing})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(existing)
}

func (api *TaskAPI) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	existing, ok := api.ownedTask(w, r, userID)
	if !ok {
		return
	}

	if err := api.Store.Delete(ctx, existing.ID); err != nil {
		api.Logger.Error("failed to delete task", "task_id", existing.ID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	api.publish(ctx, task.ChangeEvent{TaskID: existing.ID, Kind: task.ChangeDeleted, Before: &existing})

	w.WriteHeader(http.StatusNoContent)
}

// ownedTask loads the task from the path and enforces that the caller owns
// it. A task owned by someone else reads as not-found to avoid leaking IDs.
func (api *TaskAPI) ownedTask(w http.ResponseWriter, r *http.Request, userID string) (task.Task, bool) {
	id := r.PathValue("id")
	if id == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing task id")
		return task.Task{}, false
	}

	found, err := api.Store.Get(r.Context(), id)
	if errors.Is(err, task.ErrNotFound) || (err == nil && found.UserID != userID) {
		response.WriteJSONError(w, http.StatusNotFound, "task not found")
		return task.Task{}, false
	}
	if err != nil {
		api.Logger.Error("failed to read task", "task_id", id, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return task.Task{}, false
	}
	return found, true
}

func (api *TaskAPI) publish(ctx context.Context, ev task.ChangeEvent) {
	if err := api.Publisher.Publish(ctx, ev); err != nil {
		api.Logger.Warn("failed to publish change event", "event", ev.String(), "err", err)
	}
}
