package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
)

// TokenAPI lets the client app report its current FCM registration token.
// The client calls RegisterToken on login and whenever FCM rotates the token;
// the profile store keeps exactly one token per user.
type TokenAPI struct {
	Store  dispatch.ProfileStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.ProfileStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type RegisterTokenRequest struct {
	Token string `json:"token"`
}

func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.SaveToken(ctx, userID, req.Token); err != nil {
		api.Logger.Error("failed to register token", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := api.Store.ClearToken(ctx, userID); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister token", "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
