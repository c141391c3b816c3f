package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/health"
	"github.com/TTCRadio/gnuradio/metric"
	"github.com/TTCRadio/gnuradio/sched"
)

// Builder turns definitions into runnable graphs using a factory registry.
type Builder struct {
	registry  *block.Registry
	logger    *slog.Logger
	schedOpts []sched.Option
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetricsRegistry enables Prometheus metrics on built schedulers.
func WithMetricsRegistry(registry *metric.MetricsRegistry) BuilderOption {
	return func(b *Builder) {
		b.schedOpts = append(b.schedOpts, sched.WithMetricsRegistry(registry))
	}
}

// WithSchedulerOptions appends extra options for built schedulers.
func WithSchedulerOptions(opts ...sched.Option) BuilderOption {
	return func(b *Builder) {
		b.schedOpts = append(b.schedOpts, opts...)
	}
}

// NewBuilder creates a builder over the given factory registry.
func NewBuilder(registry *block.Registry, opts ...BuilderOption) (*Builder, error) {
	if registry == nil {
		return nil, errors.WrapConstruction(errors.ErrInvalidConfig, "Builder", "NewBuilder", "registry validation")
	}

	b := &Builder{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Build constructs every block in the definition, wires the connections,
// and returns the assembled graph ready to run.
func (b *Builder) Build(def *Definition) (*Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	opts := append([]sched.Option{sched.WithLogger(b.logger)}, b.schedOpts...)
	scheduler := sched.New(opts...)
	blocks := make(map[string]block.Block, len(def.Blocks))

	for _, spec := range def.Blocks {
		blk, err := b.registry.Create(spec.Factory, spec.Config)
		if err != nil {
			return nil, errors.Wrap(err, "Builder", "Build", fmt.Sprintf("block %q", spec.Name))
		}

		var blockOpts []sched.BlockOption
		if spec.MaxChunk > 0 {
			blockOpts = append(blockOpts, sched.WithMaxChunk(spec.MaxChunk))
		}
		if err := scheduler.AddBlock(blk, blockOpts...); err != nil {
			return nil, errors.Wrap(err, "Builder", "Build", fmt.Sprintf("block %q", spec.Name))
		}
		blocks[spec.Name] = blk

		b.logger.Debug("block built", "graph", def.Name, "block", spec.Name, "factory", spec.Factory)
	}

	for _, c := range def.Streams {
		if err := scheduler.Connect(blocks[c.Src], c.SrcPort, blocks[c.Dst], c.DstPort, c.BufItems); err != nil {
			return nil, errors.Wrap(err, "Builder", "Build",
				fmt.Sprintf("stream %s:%d -> %s:%d", c.Src, c.SrcPort, c.Dst, c.DstPort))
		}
	}
	for _, c := range def.Messages {
		if err := scheduler.ConnectMessage(blocks[c.Src], c.SrcPort, blocks[c.Dst], c.DstPort); err != nil {
			return nil, errors.Wrap(err, "Builder", "Build",
				fmt.Sprintf("message %s:%s -> %s:%s", c.Src, c.SrcPort, c.Dst, c.DstPort))
		}
	}

	return &Graph{
		name:      def.Name,
		scheduler: scheduler,
		blocks:    blocks,
	}, nil
}

// Graph is an assembled flowgraph bound to its scheduler.
type Graph struct {
	name      string
	scheduler *sched.Scheduler
	blocks    map[string]block.Block
}

// Name returns the graph name from its definition.
func (g *Graph) Name() string { return g.name }

// Block returns a built block instance by definition name.
func (g *Graph) Block(name string) (block.Block, bool) {
	blk, ok := g.blocks[name]
	return blk, ok
}

// Scheduler exposes the underlying scheduler for inspection.
func (g *Graph) Scheduler() *sched.Scheduler { return g.scheduler }

// Start launches the graph.
func (g *Graph) Start(ctx context.Context) error { return g.scheduler.Start(ctx) }

// Wait blocks until the graph finishes and returns the first failure, if
// any.
func (g *Graph) Wait() error { return g.scheduler.Wait() }

// Run executes the graph to completion.
func (g *Graph) Run(ctx context.Context) error { return g.scheduler.Run(ctx) }

// Stop shuts the graph down, waiting up to timeout for in-flight work.
func (g *Graph) Stop(timeout time.Duration) error { return g.scheduler.Stop(timeout) }

// UpdateHealth refreshes the monitor with every block's current health.
func (g *Graph) UpdateHealth(monitor *health.Monitor) {
	for name, blk := range g.blocks {
		if hs, ok := g.scheduler.BlockHealth(blk); ok {
			monitor.Update(name, health.FromBlockHealth(name, hs))
		}
	}
}
