package container

import (
	"net/http"

	"go-livestock-classifier/internal/analyzer"
	"go-livestock-classifier/internal/config"
	"go-livestock-classifier/internal/controller"
	"go-livestock-classifier/internal/logger"
	"go-livestock-classifier/internal/observer"
	"go-livestock-classifier/internal/repository"
	"go-livestock-classifier/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	pool       *analyzer.WorkerPool
	classifier analyzer.Classifier
	renderer   analyzer.PreviewRenderer
	previews   repository.PreviewRepository
	events     *observer.EventPublisher
	metrics    *observer.MetricsObserver
	registry   *controller.Registry
	handler    http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := analyzer.AnalysisOptions{
		Delay:            cfg.AnalysisDelay,
		SupersedePending: cfg.SupersedePendingAnalysis,
		AutoAnalyze:      cfg.AutoAnalyze,
		PreviewMaxWidth:  cfg.PreviewMaxWidth,
		PreviewMaxPixels: cfg.PreviewMaxPixels,
	}

	// Build dependency graph
	pool := analyzer.NewWorkerPool(cfg.WorkerCount)
	pool.Start()

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	classifier := analyzer.NewMockClassifier()
	renderer := analyzer.NewPreviewRenderer(opts)
	previews := repository.NewMemoryPreviewRepository()

	registry := controller.NewRegistry(func(sessionID string) *controller.PageController {
		return controller.New(sessionID, controller.Dependencies{
			Classifier: classifier,
			Renderer:   renderer,
			Previews:   previews,
			Pool:       pool,
			Events:     events,
		}, opts)
	}, cfg.SessionIdleTimeout)

	handler := transport.NewHandler(transport.Dependencies{
		Registry: registry,
		Previews: previews,
		Metrics:  metrics,
		Pool:     pool,
	}, cfg)

	return &Container{
		config:     cfg,
		pool:       pool,
		classifier: classifier,
		renderer:   renderer,
		previews:   previews,
		events:     events,
		metrics:    metrics,
		registry:   registry,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Registry returns the page session registry.
func (c *Container) Registry() *controller.Registry {
	return c.registry
}

// Close tears down every page session and stops the worker pool.
func (c *Container) Close() {
	c.registry.CloseAll()
	c.pool.Close()
}
