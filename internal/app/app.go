package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/data/graph"
	"github.com/yungbote/pulse-backend/internal/db"
	httpapi "github.com/yungbote/pulse-backend/internal/http"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
	"github.com/yungbote/pulse-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Metrics  *observability.Metrics
	Clients  Clients
	Stores   SnapshotStores
	Pipeline Pipeline
	Server   *httpapi.Server

	fanout       *bus.Fanout
	syncer       *graph.Syncer
	shutdownOtel func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Otel.Version,
	})
	metrics := observability.Init()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		clients.Close(log)
		log.Sync()
		return nil, err
	}

	stores, err := resolveSnapshotStore(log, cfg.Snapshot, clients)
	if err != nil {
		clients.Close(log)
		log.Sync()
		return nil, err
	}

	hub := realtime.NewHub(log)
	fanout := bus.NewFanout(log, hub, clients.Bus)

	pipeline, err := wirePipeline(log, metrics, cfg, clients, stores.Store, fanout, hub)
	if err != nil {
		clients.Close(log)
		log.Sync()
		return nil, fmt.Errorf("init session: %w", err)
	}

	var syncer *graph.Syncer
	if clients.Neo4j != nil {
		syncer = graph.NewSyncer(clients.Neo4j, log, pipeline.Channel, pipeline.Model, cfg.Neo4j.SyncInterval.Duration)
	}

	server := httpapi.NewServer(log, cfg.HTTP.Addr, wireRouterConfig(log, metrics, cfg, pipeline, stores))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Stores:       stores,
		Pipeline:     pipeline,
		Server:       server,
		fanout:       fanout,
		syncer:       syncer,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run blocks until ctx is cancelled or one of the loops fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Pipeline.Session.Run(gctx) })
	g.Go(func() error { return a.fanout.Run(gctx) })
	if a.syncer != nil {
		g.Go(func() error { return a.syncer.Run(gctx) })
	}
	g.Go(func() error { return a.Server.Run(gctx, a.Cfg.HTTP.ShutdownTimeout.Duration) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close(a.Log)
	db.Close(a.Stores.DB)
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
