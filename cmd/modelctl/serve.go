package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vmodel/internal/config"
	"github.com/vango-dev/vmodel/pkg/devtools"
	"github.com/vango-dev/vmodel/pkg/middleware"
	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/persist"
)

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo models with devtools",
		Long: `Serve the demo counter and todos models behind the devtools
HTTP and WebSocket inspector.

State is hydrated from the configured snapshot backend on start
and written back after changes settle.

Examples:
  modelctl serve
  modelctl serve --port=8080 --access-log
  VMODEL_PERSIST=s3 VMODEL_S3_BUCKET=my-models modelctl serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	w := cmd.OutOrStdout()
	success(w, "Serving %d models at %s", a.registry.Len(), cfg.URL())
	for _, name := range a.registry.Names() {
		info(w, "%s/models/%s", cfg.URL(), name)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	info(w, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.devtools.Close()
	return srv.Shutdown(shutdownCtx)
}

// app is the set of models, persisters and handlers behind serve.
type app struct {
	registry   *model.Registry
	counter    *model.Model[Counter]
	todos      *model.Model[Todos]
	persisters []*persist.Persister
	metrics    *prometheus.Registry
	devtools   *devtools.Server
	handler    http.Handler
	logger     *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		registry: model.NewRegistry(),
		metrics:  prometheus.NewRegistry(),
		logger:   logger.With("component", "modelctl"),
	}
	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	interceptors := []model.Interceptor{
		middleware.Logger(logger),
		middleware.Events(),
		middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(a.metrics),
		),
	}
	if cfg.Tracing {
		interceptors = append(interceptors, middleware.OpenTelemetry())
	}
	opts := []model.Option{
		model.WithRegistry(a.registry),
		model.WithInterceptors(interceptors...),
	}

	a.counter = model.New(counterDescriptor(), opts...)
	a.todos = model.New(todosDescriptor(), opts...)

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if storage != nil {
		for _, m := range []model.Inspectable{a.counter, a.todos} {
			p := persist.New(m, storage,
				persist.WithDebounce(cfg.Persist.Debounce),
				persist.WithLogger(logger),
			)
			// Close stops the persisters, which writes pending snapshots
			// after the signal context is done.
			if err := p.Start(context.WithoutCancel(ctx)); err != nil {
				a.Close()
				return nil, err
			}
			a.persisters = append(a.persisters, p)
		}
	}

	a.devtools = devtools.New(a.registry,
		devtools.WithLogger(logger),
		devtools.WithGatherer(a.metrics),
		devtools.WithReadOnly(cfg.Serve.ReadOnly),
		devtools.WithAccessLog(cfg.Serve.AccessLog),
	)
	a.handler = a.devtools

	a.logger.Info("models ready",
		"models", a.registry.Names(),
		"persist", cfg.Persist.Backend,
	)
	return a, nil
}

// Close stops persistence, writing pending snapshots, and destroys the models.
func (a *app) Close() {
	for _, p := range a.persisters {
		p.Stop()
	}
	a.persisters = nil
	if a.devtools != nil {
		a.devtools.Close()
	}
	a.counter.Destroy()
	a.todos.Destroy()
}
