package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DashPull/internal/domain/repository"
	"DashPull/internal/handler/api"
	"DashPull/internal/handler/ws"
	"DashPull/internal/livecache"
	"DashPull/internal/session"
	"DashPull/internal/usecase"
	pkgch "DashPull/pkg/clickhouse"
	"DashPull/pkg/config"
	xhttp "DashPull/pkg/http"
	applogger "DashPull/pkg/logger"
	"DashPull/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	store    *livecache.Store
	registry *usecase.Registry
	handler  *api.DashboardHandler
	hub      *ws.Hub
	guard    *session.Guard
	queue    *queue.RedisQueue
	pub      repository.UpdatePublisher
	archiver repository.Archiver
	chClient *pkgch.Client
	metrics  repository.Metrics

	httpServer *xhttp.Server
	subs       []*livecache.Subscription
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	store *livecache.Store,
	registry *usecase.Registry,
	handler *api.DashboardHandler,
	hub *ws.Hub,
	guard *session.Guard,
	q *queue.RedisQueue,
	pub repository.UpdatePublisher,
	archiver repository.Archiver,
	chClient *pkgch.Client,
	metrics repository.Metrics,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: registry,
		handler:  handler,
		hub:      hub,
		guard:    guard,
		queue:    q,
		pub:      pub,
		archiver: archiver,
		chClient: chClient,
		metrics:  metrics,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	// Fan cache updates out to the push hub and the optional sinks.
	a.hub.Attach(a.store)
	if a.pub != nil {
		a.store.OnUpdate(usecase.NewPublishHook(a.pub, a.log))
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.Topic + ".logs",
			Publisher:      a.pub,
		})
	}
	if a.archiver != nil {
		a.store.OnUpdate(usecase.NewArchiveHook(a.archiver, a.registry, a.log))
	}

	// Arm the poll loops: one standing subscription per polled resource,
	// on-demand ones registered for out-of-band refresh.
	for _, name := range a.registry.Names() {
		d, _ := a.registry.Descriptor(name)
		if d.Interval > 0 {
			a.subs = append(a.subs, a.store.Subscribe(d))
		} else {
			a.store.Ensure(d)
		}
		a.log.Info("resource armed",
			applogger.String("resource", name),
			applogger.Duration("interval", d.Interval),
		)
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.log.Error("queue start error", applogger.Error(err))
			return err
		}
		a.queue.StartRetryProcessor()
		a.log.Info("backtest queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(a.log),
	)
	a.httpServer.Echo().GET("/view/stream", a.hub.Handler, a.guard.Middleware(a.cfg.Trading.LoginPath))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	a.store.Close()
	a.hub.Close()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.log.RemoveCollector()

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.archiver != nil {
		if err := a.archiver.Close(); err != nil {
			a.log.Warn("archiver close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
