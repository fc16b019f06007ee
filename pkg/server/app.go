package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FinTrain/internal/domain/models"
	"FinTrain/pkg/config"
	xhttp "FinTrain/pkg/http"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
	"FinTrain/pkg/queue"
)

// Runner trains configured units on demand.
type Runner interface {
	TrainAll(ctx context.Context) models.BatchReport
	TrainOne(ctx context.Context, symbol, horizon string) (models.BatchReport, error)
}

// Hub runs until its context is cancelled.
type Hub interface {
	Run(ctx context.Context)
}

// NamedCloser releases an infrastructure client on shutdown.
type NamedCloser struct {
	Name  string
	Close func() error
}

// Option configures App.
type Option func(*App)

func WithHTTPServer(s *xhttp.Server) Option { return func(a *App) { a.httpServer = s } }

func WithConsumer(c *pkgkafka.Consumer) Option { return func(a *App) { a.consumer = c } }

func WithQueue(q *queue.RedisQueue) Option { return func(a *App) { a.queue = q } }

func WithHub(h Hub) Option { return func(a *App) { a.hub = h } }

func WithRunner(r Runner) Option { return func(a *App) { a.runner = r } }

// WithClosers appends clients closed last, in order.
func WithClosers(closers ...NamedCloser) Option {
	return func(a *App) { a.closers = append(a.closers, closers...) }
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	queue      *queue.RedisQueue
	hub        Hub
	runner     Runner
	closers    []NamedCloser
	stopHub    context.CancelFunc
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{cfg: cfg, l: l}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run serves the API, the queue workers and the wrong-prediction consumer
// until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.start(ctx); err != nil {
		_ = a.shutdown()
		return err
	}
	l := a.l
	l.Info("trainer started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Training.Symbols),
		applogger.Strings("horizons", a.cfg.Training.Horizons))

	<-ctx.Done()
	l.Info("shutdown signal received")
	return a.shutdown()
}

// RunOnce trains every unit, or the single unit when symbol is set, then
// releases resources.
func (a *App) RunOnce(ctx context.Context, symbol, horizon string) (models.BatchReport, error) {
	defer func() { _ = a.shutdown() }()
	if a.runner == nil {
		return models.BatchReport{}, fmt.Errorf("no runner configured")
	}
	if symbol == "" {
		return a.runner.TrainAll(ctx), nil
	}
	return a.runner.TrainOne(ctx, symbol, horizon)
}

func (a *App) start(ctx context.Context) error {
	if a.hub != nil {
		hubCtx, cancel := context.WithCancel(ctx)
		a.stopHub = cancel
		go a.hub.Run(hubCtx)
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return fmt.Errorf("queue start: %w", err)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer start: %w", err)
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("http server start: %w", err)
		}
	}
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	l := a.l
	l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.stopHub != nil {
		a.stopHub()
	}

	// The collector publishes through the producer, so flush it first.
	l.RemoveCollector()

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			l.Warn("close error", applogger.String("client", c.Name), applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
