// Package main runs a flowgraph described by a JSON definition file:
// built-in blocks are registered, the graph is assembled and executed, and
// optional metrics and health endpoints report on the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/blocks"
	"github.com/TTCRadio/gnuradio/config"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/graph"
	"github.com/TTCRadio/gnuradio/health"
	"github.com/TTCRadio/gnuradio/metric"
	"github.com/TTCRadio/gnuradio/natsbridge"
	"github.com/TTCRadio/gnuradio/natsclient"
	"github.com/TTCRadio/gnuradio/sched"
)

const (
	version = "0.1.0"
	appName = "gnuradio"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath      = flag.String("config", "", "path to runtime config JSON (optional)")
		graphPath       = flag.String("graph", "", "path to flowgraph definition JSON (required)")
		showVersion     = flag.Bool("version", false, "print version and exit")
		shutdownTimeout = flag.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, version)
		return nil
	}
	if *graphPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required -graph flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting", "app", appName, "version", version, "graph", *graphPath)

	var metricsRegistry *metric.MetricsRegistry
	if cfg.Metrics.Enabled {
		metricsRegistry = metric.NewMetricsRegistry()
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		if err := server.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() { _ = server.Stop() }()
		logger.Info("metrics serving", "address", server.Address())
	}

	registry := block.NewRegistry()
	if err := blocks.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("register builtins: %w", err)
	}

	if len(cfg.NATS.URLs) > 0 {
		client, err := natsclient.FromConfig(cfg.NATS,
			natsclient.WithLogger(logger), natsclient.WithName(appName))
		if err != nil {
			return fmt.Errorf("nats client: %w", err)
		}
		connectCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err = client.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer func() { _ = client.Close() }()

		conn, err := client.Conn()
		if err != nil {
			return fmt.Errorf("nats connection: %w", err)
		}
		if err := natsbridge.Register(registry, conn); err != nil {
			return fmt.Errorf("register nats bridges: %w", err)
		}
	}

	for _, meta := range registry.DescribeAll() {
		logger.Debug("factory registered",
			"name", meta.Name, "type", meta.Type, "version", meta.Version)
	}

	data, err := os.ReadFile(*graphPath)
	if err != nil {
		return fmt.Errorf("read graph definition: %w", err)
	}
	def, err := graph.ParseDefinition(data)
	if err != nil {
		return fmt.Errorf("parse graph definition: %w", err)
	}

	builderOpts := []graph.BuilderOption{graph.WithLogger(logger)}
	if metricsRegistry != nil {
		builderOpts = append(builderOpts, graph.WithMetricsRegistry(metricsRegistry))
	}
	if schedOpts := schedulerOptions(cfg.Scheduler); len(schedOpts) > 0 {
		builderOpts = append(builderOpts, graph.WithSchedulerOptions(schedOpts...))
	}
	builder, err := graph.NewBuilder(registry, builderOpts...)
	if err != nil {
		return fmt.Errorf("builder: %w", err)
	}
	g, err := builder.Build(def)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	// Subject subscriptions are independent of the scheduler lifecycle.
	for _, spec := range def.Blocks {
		blk, ok := g.Block(spec.Name)
		if !ok {
			continue
		}
		if ingress, ok := blk.(*natsbridge.FromNATS); ok {
			if err := ingress.Start(); err != nil {
				return fmt.Errorf("start nats ingress %q: %w", spec.Name, err)
			}
			defer func(f *natsbridge.FromNATS) { _ = f.Stop() }(ingress)
		}
	}

	monitor := health.NewMonitor()
	if cfg.Health.Enabled {
		stopHealth, err := serveHealth(cfg.Health, monitor, def.Name, logger)
		if err != nil {
			return fmt.Errorf("health server: %w", err)
		}
		defer stopHealth()
	}

	return runGraph(g, monitor, *shutdownTimeout, logger)
}

func runGraph(g *graph.Graph, monitor *health.Monitor, shutdownTimeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("start graph: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			g.UpdateHealth(monitor)
			if err != nil {
				return fmt.Errorf("graph %q failed: %w", g.Name(), err)
			}
			logger.Info("graph finished", "graph", g.Name())
			return nil
		case <-ticker.C:
			g.UpdateHealth(monitor)
		case sig := <-sigs:
			logger.Info("shutting down", "signal", sig.String())
			if err := g.Stop(shutdownTimeout); err != nil {
				return fmt.Errorf("stop graph: %w", err)
			}
			return nil
		}
	}
}

func serveHealth(cfg config.HealthConfig, monitor *health.Monitor, graphName string, logger *slog.Logger) (func(), error) {
	path := cfg.Path
	if path == "" {
		path = "/healthz"
	}

	mux := http.NewServeMux()
	mux.Handle(path, monitor.Handler(graphName))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", "error", err)
		}
	}()
	logger.Info("health serving", "address", server.Addr, "path", path)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}

// schedulerOptions maps the scheduler tuning section onto scheduler options,
// leaving scheduler defaults in place for unset fields.
func schedulerOptions(cfg config.SchedulerConfig) []sched.Option {
	var opts []sched.Option
	if cfg.DefaultBufferItems > 0 {
		opts = append(opts, sched.WithDefaultBufferItems(cfg.DefaultBufferItems))
	}
	if cfg.MaxCascade > 0 {
		opts = append(opts, sched.WithMaxCascade(cfg.MaxCascade))
	}
	if cfg.BackoffInitial > 0 || cfg.BackoffMax > 0 {
		backoff := errors.DefaultBackoffConfig()
		if cfg.BackoffInitial > 0 {
			backoff.InitialDelay = cfg.BackoffInitial
		}
		if cfg.BackoffMax > 0 {
			backoff.MaxDelay = cfg.BackoffMax
		}
		opts = append(opts, sched.WithBackoff(backoff))
	}
	return opts
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
