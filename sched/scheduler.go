package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/metric"
	"github.com/TTCRadio/gnuradio/pkg/retry"
	"github.com/TTCRadio/gnuradio/stream"
)

// DefaultBufferItems is the edge buffer capacity used when Connect is called
// with bufItems <= 0.
const DefaultBufferItems = 8192

// DefaultMaxCascade bounds how many times one dispatch pass re-drains a
// block's inboxes when handlers publish follow-up messages to themselves.
const DefaultMaxCascade = 8

// edge is one producer/consumer stream connection: a sample buffer plus the
// tag store shared by the two endpoints.
type edge struct {
	buf  *stream.Buffer
	tags *stream.TagStore
	src  *runner
	dst  *runner
}

// Scheduler drives a set of wired blocks until every block is done, a block
// fails, or the context is cancelled.
type Scheduler struct {
	logger     *slog.Logger
	metrics    *schedMetrics
	backoff    retry.Config
	maxCascade int
	bufItems   int

	mu      sync.Mutex
	runners []*runner
	byBlock map[block.Block]*runner
	edges   []*edge
	started bool
	stopped bool
	cancel  context.CancelFunc
	failure error

	wg sync.WaitGroup
}

// Option configures the scheduler
type Option func(*Scheduler)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRegistry enables Prometheus metrics for scheduler activity.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(s *Scheduler) {
		s.metrics = newSchedMetrics(registry)
	}
}

// WithBackoff overrides the starvation yield policy.
func WithBackoff(cfg errors.BackoffConfig) Option {
	return func(s *Scheduler) {
		s.backoff = cfg.ToRetryConfig()
	}
}

// WithMaxCascade overrides the per-pass message cascade bound.
func WithMaxCascade(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxCascade = n
		}
	}
}

// WithDefaultBufferItems overrides the edge buffer capacity used when
// Connect is called with bufItems <= 0.
func WithDefaultBufferItems(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.bufItems = n
		}
	}
}

// New creates a scheduler with no blocks wired.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:     slog.Default(),
		backoff:    errors.DefaultBackoffConfig().ToRetryConfig(),
		maxCascade: DefaultMaxCascade,
		bufItems:   DefaultBufferItems,
		byBlock:    make(map[block.Block]*runner),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// BlockOption configures one block under scheduling
type BlockOption func(*runner)

// WithMaxChunk caps the items offered to the block per work invocation.
func WithMaxChunk(n int) BlockOption {
	return func(r *runner) {
		if n > 0 {
			r.maxChunk = n
		}
	}
}

// AddBlock places a block under scheduling. The block's signatures and rate
// are validated here; stream-count bounds are checked against the actual
// wiring when Start runs.
func (s *Scheduler) AddBlock(blk block.Block, opts ...BlockOption) error {
	if err := blk.InputSignature().Validate(); err != nil {
		return errors.Wrap(err, "Scheduler", "AddBlock", "input signature validation")
	}
	if err := blk.OutputSignature().Validate(); err != nil {
		return errors.Wrap(err, "Scheduler", "AddBlock", "output signature validation")
	}
	if err := blk.Rate().Validate(); err != nil {
		return errors.Wrap(err, "Scheduler", "AddBlock", "rate validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "Scheduler", "AddBlock", "lifecycle check")
	}
	if _, exists := s.byBlock[blk]; exists {
		return errors.WrapConstruction(
			fmt.Errorf("block %q already added", blk.Name()),
			"Scheduler", "AddBlock", "duplicate block check")
	}

	r := newRunner(s, blk)
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	// Message arrivals wake the runner so queued messages are dispatched
	// promptly even when the sample path is starved.
	if r.ports != nil {
		for _, name := range r.ports.InNames() {
			if inbox, ok := r.ports.Inbox(name); ok {
				inbox.SetNotify(r.kickFn)
			}
		}
		r.ports.SetPublishHook(func(port string) {
			s.metrics.recordPublished(r.name, port)
		})
	}

	s.runners = append(s.runners, r)
	s.byBlock[blk] = r
	return nil
}

// Connect wires output stream srcPort of src to input stream dstPort of dst
// through a new sample buffer and tag store. Element sizes must match. An
// output port may fan out to several consumers (each connection gets its own
// buffer); an input port accepts exactly one producer.
func (s *Scheduler) Connect(src block.Block, srcPort int, dst block.Block, dstPort int, bufItems int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "Scheduler", "Connect", "lifecycle check")
	}

	srcRunner, ok := s.byBlock[src]
	if !ok {
		return errors.WrapConstruction(
			fmt.Errorf("source block %q not added", src.Name()),
			"Scheduler", "Connect", "block lookup")
	}
	dstRunner, ok := s.byBlock[dst]
	if !ok {
		return errors.WrapConstruction(
			fmt.Errorf("destination block %q not added", dst.Name()),
			"Scheduler", "Connect", "block lookup")
	}
	if srcPort < 0 || dstPort < 0 {
		return errors.WrapConstruction(
			fmt.Errorf("ports %d -> %d", srcPort, dstPort),
			"Scheduler", "Connect", "port index validation")
	}

	srcElem := src.OutputSignature().ElemSize(srcPort)
	dstElem := dst.InputSignature().ElemSize(dstPort)
	if srcElem != dstElem || srcElem <= 0 {
		return errors.WrapConstruction(
			fmt.Errorf("%q:%d elem %d, %q:%d elem %d: %w",
				src.Name(), srcPort, srcElem, dst.Name(), dstPort, dstElem,
				errors.ErrElementSizeMismatch),
			"Scheduler", "Connect", "element size check")
	}

	if dstPort < len(dstRunner.inputs) && dstRunner.inputs[dstPort] != nil {
		return errors.WrapConstruction(
			fmt.Errorf("%q input %d: %w", dst.Name(), dstPort, errors.ErrStreamAlreadyWired),
			"Scheduler", "Connect", "input slot check")
	}

	if bufItems <= 0 {
		bufItems = s.bufItems
	}
	buf, err := stream.NewBuffer(srcElem, bufItems)
	if err != nil {
		return errors.Wrap(err, "Scheduler", "Connect", "buffer allocation")
	}

	e := &edge{buf: buf, tags: stream.NewTagStore(), src: srcRunner, dst: dstRunner}

	// Producer commits wake the consumer; consumer releases wake the producer.
	buf.OnProduce(dstRunner.kickFn)
	buf.OnConsume(srcRunner.kickFn)

	srcRunner.addOutput(srcPort, e)
	dstRunner.addInput(dstPort, e)
	s.edges = append(s.edges, e)
	return nil
}

// ConnectMessage wires message output port outPort of src to message input
// port inPort of dst. Both blocks must carry message ports and have the
// named ports registered.
func (s *Scheduler) ConnectMessage(src block.Block, outPort string, dst block.Block, inPort string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "Scheduler", "ConnectMessage", "lifecycle check")
	}

	srcRunner, ok := s.byBlock[src]
	if !ok || srcRunner.ports == nil {
		return errors.WrapConstruction(
			fmt.Errorf("source block %q has no message ports", src.Name()),
			"Scheduler", "ConnectMessage", "block lookup")
	}
	dstRunner, ok := s.byBlock[dst]
	if !ok || dstRunner.ports == nil {
		return errors.WrapConstruction(
			fmt.Errorf("destination block %q has no message ports", dst.Name()),
			"Scheduler", "ConnectMessage", "block lookup")
	}

	inbox, ok := dstRunner.ports.Inbox(inPort)
	if !ok {
		return errors.WrapConstruction(
			fmt.Errorf("input port %q on %q: %w", inPort, dst.Name(), errors.ErrPortNotFound),
			"Scheduler", "ConnectMessage", "input port lookup")
	}
	return srcRunner.ports.Subscribe(outPort, inbox)
}

// Start validates the wiring against every block's declared stream-count
// bounds and launches one runner goroutine per block.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapConstruction(errors.ErrAlreadyStarted, "Scheduler", "Start", "lifecycle check")
	}

	for _, r := range s.runners {
		if err := r.validateWiring(); err != nil {
			return errors.Wrap(err, "Scheduler", "Start", fmt.Sprintf("wiring of %q", r.name))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	for _, r := range s.runners {
		r.setState(block.StateReady)
		s.wg.Add(1)
		go func(r *runner) {
			defer s.wg.Done()
			r.loop(runCtx)
		}(r)
	}

	s.logger.Info("scheduler started", "blocks", len(s.runners), "edges", len(s.edges))
	return nil
}

// Wait blocks until every runner exits and returns the first fatal failure,
// if any.
func (s *Scheduler) Wait() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Run is Start followed by Wait, with buffers released afterwards.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	err := s.Wait()
	s.release()
	return err
}

// Stop cancels scheduling, waits up to timeout for in-flight work to finish,
// then releases buffers. No work call observes a torn-down buffer mid-call.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.WrapConstruction(errors.ErrNotStarted, "Scheduler", "Stop", "lifecycle check")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.release()
		return nil
	case <-timer.C:
		return errors.WrapTransient(
			fmt.Errorf("runners still in flight after %s", timeout),
			"Scheduler", "Stop", "shutdown wait")
	}
}

// release closes every edge buffer after all runners have exited.
func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		_ = e.buf.Close()
	}
}

// Failure returns the first fatal error observed, if any.
func (s *Scheduler) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// BlockState returns the lifecycle state of a block under scheduling.
func (s *Scheduler) BlockState(blk block.Block) (block.State, bool) {
	s.mu.Lock()
	r, ok := s.byBlock[blk]
	s.mu.Unlock()
	if !ok {
		return block.StateCreated, false
	}
	return r.currentState(), true
}

// BlockHealth returns health status for a block under scheduling.
func (s *Scheduler) BlockHealth(blk block.Block) (block.HealthStatus, bool) {
	s.mu.Lock()
	r, ok := s.byBlock[blk]
	s.mu.Unlock()
	if !ok {
		return block.HealthStatus{}, false
	}
	return r.health(), true
}

// BlockFlow returns data-flow metrics for a block under scheduling.
func (s *Scheduler) BlockFlow(blk block.Block) (block.FlowMetrics, bool) {
	s.mu.Lock()
	r, ok := s.byBlock[blk]
	s.mu.Unlock()
	if !ok {
		return block.FlowMetrics{}, false
	}
	return r.flow(), true
}

// failBlock records the first fatal failure, stops the failed runner and,
// conservatively, every runner downstream of it.
func (s *Scheduler) failBlock(r *runner, err error) {
	s.mu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.mu.Unlock()

	s.logger.Error("block failed", "block", r.name, "error", err)
	s.metrics.recordError(r.name, errors.Classify(err).String())

	seen := map[*runner]bool{r: true}
	s.stopDownstream(r, seen)
}

func (s *Scheduler) stopDownstream(r *runner, seen map[*runner]bool) {
	for _, slot := range r.outputs {
		for _, e := range slot {
			if seen[e.dst] {
				continue
			}
			seen[e.dst] = true
			e.dst.requestStop()
			s.stopDownstream(e.dst, seen)
		}
	}
}
