// Package tasknotifier assembles the task notification service: the change
// feed pipeline that pushes task lifecycle notifications, plus the HTTP API
// for task CRUD and device token registration.
package tasknotifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-task-notification-service/internal/api"
	"github.com/tinywideclouds/go-task-notification-service/internal/pipeline"
	"github.com/tinywideclouds/go-task-notification-service/pkg/dispatch"
	"github.com/tinywideclouds/go-task-notification-service/pkg/task"
	"github.com/tinywideclouds/go-task-notification-service/tasknotifier/config"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[task.ChangeEvent]
	logger          *slog.Logger
}

// New assembles the service.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	dispatcher dispatch.Dispatcher,
	resolver dispatch.TokenResolver,
	profiles dispatch.ProfileStore,
	tasks task.Store,
	publisher task.EventPublisher,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Processor
	processor := pipeline.NewProcessor(resolver, dispatcher, profiles,
		pipeline.ProcessorOptions{CleanupDeadTokens: cfg.CleanupDeadTokens}, logger)

	// 3. Pipeline
	streamingService, err := messagepipeline.NewStreamingService(
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.TaskChangeTransformer,
		processor,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	// 4. APIs
	tokenAPI := api.NewTokenAPI(profiles, logger)
	taskAPI := api.NewTaskAPI(tasks, publisher, logger)

	// Register Routes
	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	// Helper for clean route definition
	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	// 1. Device token registration
	handle("PUT /api/v1/tokens", tokenAPI.RegisterToken)
	handle("DELETE /api/v1/tokens", tokenAPI.UnregisterToken)

	// 2. Task CRUD (each mutation feeds the notification pipeline)
	handle("POST /api/v1/tasks", taskAPI.CreateTask)
	handle("GET /api/v1/tasks", taskAPI.ListTasks)
	handle("GET /api/v1/tasks/{id}", taskAPI.GetTask)
	handle("PUT /api/v1/tasks/{id}", taskAPI.UpdateTask)
	handle("DELETE /api/v1/tasks/{id}", taskAPI.DeleteTask)

	// 3. Global OPTIONS for the API namespace (CORS preflight)
	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Just returns 200 OK with CORS headers handled by middleware
	})))

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
