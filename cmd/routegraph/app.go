package main

import (
	"context"
	"fmt"

	"github.com/hanpama/routegraph/internal/buildctx"
	"github.com/hanpama/routegraph/internal/config"
	"github.com/hanpama/routegraph/internal/eventbus"
	"github.com/hanpama/routegraph/internal/interceptors"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/otel"
	"github.com/hanpama/routegraph/internal/resolve"
	"github.com/hanpama/routegraph/internal/sample"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app is a booted routegraph over the sample catalogue.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	build    *buildctx.Context
	graph    *metadata.Graph
	engine   *resolve.Engine
	ops      *resolve.Operations
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	shutdown, err := otel.Setup(cfg.Telemetry.Endpoint, cfg.Service, bus)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := interceptors.NewMetrics("routegraph", registry)
	if err != nil {
		return nil, err
	}
	store := middleware.NewStore()
	if err := store.RegisterNamed(interceptors.Named(logger, metrics, cfg.Breaker)); err != nil {
		return nil, err
	}

	storage := metadata.NewStorage()
	sample.Register(storage)
	graph, err := storage.Build()
	if err != nil {
		return nil, fmt.Errorf("build metadata: %w", err)
	}

	opts := cfg.BuildOptions(store)
	if len(cfg.Routes) == 0 {
		opts.Router = sample.Router()
	}
	opts.DefaultContainer = sample.Container(sample.NewCatalogue(sample.Seed()...))
	opts.Logger = logger
	opts.Bus = bus

	bc := buildctx.New()
	if err := bc.Create(opts); err != nil {
		return nil, err
	}
	engine := resolve.New(bc)
	ops, err := engine.BindRoutes(graph)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		build:    bc,
		graph:    graph,
		engine:   engine,
		ops:      ops,
		registry: registry,
		shutdown: shutdown,
	}, nil
}

func (a *app) Close(ctx context.Context) error {
	_ = a.logger.Sync()
	return a.shutdown(ctx)
}
