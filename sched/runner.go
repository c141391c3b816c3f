package sched

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pkg/retry"
	"github.com/TTCRadio/gnuradio/stream"
)

// runner drives one block: at most one Work call in flight, message
// handlers dispatched on the same goroutine so they never overlap Work.
type runner struct {
	sched *Scheduler
	blk   block.Block
	name  string
	rate  block.Ratio

	maxChunk       int
	outputMultiple int
	propagate      bool
	ports          *block.Ports

	inputs  []*edge   // by input slot
	outputs [][]*edge // by output slot; each slot may fan out

	kick chan struct{}

	mu      sync.Mutex // serializes Work and handler dispatch
	state   atomic.Int32
	stopReq atomic.Bool

	// dropped-message totals already exported, by port; only touched under
	// r.mu during dispatch
	dropSeen map[string]int64

	// health, guarded by hmu
	hmu          sync.Mutex
	startTime    time.Time
	errorCount   int
	lastError    string
	lastActivity time.Time
	itemsTotal   int64
	msgsTotal    int64

	scratchIn  [][]byte
	scratchOut [][]byte
}

func newRunner(s *Scheduler, blk block.Block) *runner {
	r := &runner{
		sched:    s,
		blk:      blk,
		name:     blk.Name(),
		rate:     blk.Rate(),
		kick:     make(chan struct{}, 1),
		dropSeen: make(map[string]int64),
	}

	if mp, ok := blk.(block.MessagePorter); ok {
		r.ports = mp.MessagePorts()
	}
	if oc, ok := blk.(block.OutputConstrainer); ok {
		r.outputMultiple = oc.OutputMultiple()
	}
	if tp, ok := blk.(block.TagPropagator); ok {
		r.propagate = tp.PropagateTags()
	}

	r.state.Store(int32(block.StateCreated))
	return r
}

// kickFn wakes the runner out of its starvation wait. Non-blocking.
func (r *runner) kickFn() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *runner) addInput(port int, e *edge) {
	for len(r.inputs) <= port {
		r.inputs = append(r.inputs, nil)
	}
	r.inputs[port] = e
}

func (r *runner) addOutput(port int, e *edge) {
	for len(r.outputs) <= port {
		r.outputs = append(r.outputs, nil)
	}
	r.outputs[port] = append(r.outputs[port], e)
}

func (r *runner) setState(s block.State) {
	r.state.Store(int32(s))
	r.sched.metrics.setStatus(r.name, s)
}

func (r *runner) currentState() block.State {
	return block.State(r.state.Load())
}

// finished reports whether this runner will never commit again.
func (r *runner) finished() bool {
	if r.stopReq.Load() {
		return true
	}
	s := r.currentState()
	return s == block.StateDone || s == block.StateFailed
}

func (r *runner) requestStop() {
	r.stopReq.Store(true)
	r.kickFn()
}

// validateWiring checks the actual connection counts against the block's
// declared signature bounds. Holes in the slot lists mean a declared stream
// was left unconnected.
func (r *runner) validateWiring() error {
	for i, e := range r.inputs {
		if e == nil {
			return errors.WrapConstruction(
				fmt.Errorf("input %d: %w", i, errors.ErrStreamNotConnected),
				"runner", "validateWiring", "input slot check")
		}
	}
	for i, slot := range r.outputs {
		if len(slot) == 0 {
			return errors.WrapConstruction(
				fmt.Errorf("output %d: %w", i, errors.ErrStreamNotConnected),
				"runner", "validateWiring", "output slot check")
		}
	}
	if err := r.blk.InputSignature().CheckCount(len(r.inputs)); err != nil {
		return err
	}
	return r.blk.OutputSignature().CheckCount(len(r.outputs))
}

// loop drives the block until done, failed, stopped, or cancelled.
func (r *runner) loop(ctx context.Context) {
	r.hmu.Lock()
	r.startTime = time.Now()
	r.hmu.Unlock()

	r.setState(block.StateRunning)

	idle := 0
	for {
		if ctx.Err() != nil || r.stopReq.Load() {
			r.setState(block.StateDone)
			return
		}

		progress, err := r.pass(ctx)
		switch {
		case err != nil && stderrors.Is(err, block.ErrDone):
			r.setState(block.StateDone)
			r.kickNeighbors()
			return
		case err != nil:
			r.recordFailure(err)
			r.setState(block.StateFailed)
			r.sched.failBlock(r, err)
			r.kickNeighbors()
			return
		case progress:
			idle = 0
			continue
		}

		// No progress: yield until an adjacent commit or message wakes us,
		// or the jittered backoff elapses.
		idle++
		r.sched.metrics.recordStarved(r.name)
		_ = retry.Wait(ctx, r.sched.backoff, idle, r.kick)
	}
}

// pass performs one scheduling pass: message dispatch, then at most one
// work invocation. Returns whether any progress was made.
func (r *runner) pass(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered, err := r.dispatch(ctx)
	if err != nil {
		return false, err
	}

	if len(r.inputs) == 0 && len(r.outputs) == 0 {
		// Message-only block: progress is message delivery.
		return delivered > 0, nil
	}

	offered := r.negotiate()
	if offered == 0 {
		if r.exhausted() {
			return false, block.ErrDone
		}
		return delivered > 0, nil
	}

	produced, consumed, err := r.invoke(ctx, offered)
	if err != nil {
		return false, err
	}
	return delivered > 0 || produced > 0 || consumed > 0, nil
}

// negotiate computes the items offered this invocation, in output units:
// the minimum of output free space and rate-scaled input availability,
// bounded by the chunk limit and aligned to the rate and output multiple.
func (r *runner) negotiate() int {
	offered := math.MaxInt

	if len(r.outputs) > 0 {
		for _, slot := range r.outputs {
			for _, e := range slot {
				if free := e.buf.Free(); free < offered {
					offered = free
				}
			}
		}
	}

	if len(r.inputs) > 0 {
		avail := math.MaxInt
		for _, e := range r.inputs {
			if a := e.buf.Available(); a < avail {
				avail = a
			}
		}
		if fromInput := r.rate.OutputItems(avail); fromInput < offered {
			offered = fromInput
		}
	}

	if r.maxChunk > 0 && offered > r.maxChunk {
		offered = r.maxChunk
	}

	offered = r.rate.AlignOutput(offered)
	if r.outputMultiple > 1 {
		offered = offered / r.outputMultiple * r.outputMultiple
	}
	return offered
}

// exhausted reports whether the block can never be offered items again:
// every upstream producer is finished and the remaining input cannot fill
// one rate quantum, or every downstream consumer is finished.
func (r *runner) exhausted() bool {
	if len(r.inputs) > 0 {
		allDone := true
		for _, e := range r.inputs {
			if !e.src.finished() {
				allDone = false
				break
			}
		}
		if allDone {
			avail := math.MaxInt
			for _, e := range r.inputs {
				if a := e.buf.Available(); a < avail {
					avail = a
				}
			}
			if r.rate.AlignOutput(r.rate.OutputItems(avail)) == 0 {
				return true
			}
		}
	}

	if len(r.outputs) > 0 {
		allDone := true
		for _, slot := range r.outputs {
			for _, e := range slot {
				if !e.dst.finished() {
					allDone = false
					break
				}
			}
		}
		if allDone {
			return true
		}
	}

	return false
}

// invoke builds the window views, calls Work with panic containment, and
// commits the returned counts: tags first, then produced bytes, then input
// consumption and tag pruning, so a consumer never observes samples whose
// tags are not yet queryable.
func (r *runner) invoke(ctx context.Context, offered int) (int, int, error) {
	inItems := r.rate.InputItems(offered)

	for len(r.scratchIn) < len(r.inputs) {
		r.scratchIn = append(r.scratchIn, nil)
	}
	for len(r.scratchOut) < len(r.outputs) {
		r.scratchOut = append(r.scratchOut, nil)
	}

	inputs := make([]stream.InputWindow, len(r.inputs))
	for i, e := range r.inputs {
		elem := e.buf.ElemSize()
		need := inItems * elem
		if cap(r.scratchIn[i]) < need {
			r.scratchIn[i] = make([]byte, need)
		}
		buf := r.scratchIn[i][:need]
		// Availability only grows between negotiate and here: this runner is
		// the sole consumer of its input buffers.
		e.buf.Peek(buf)
		inputs[i] = stream.NewInputWindow(buf, elem, e.buf.ReadCursor(), e.tags)
	}

	outputs := make([]*stream.OutputWindow, len(r.outputs))
	for si, slot := range r.outputs {
		elem := slot[0].buf.ElemSize()
		need := offered * elem
		if cap(r.scratchOut[si]) < need {
			r.scratchOut[si] = make([]byte, need)
		}
		// Fanout edges of one slot advance in lockstep, so any edge's write
		// cursor is the slot's absolute offset.
		outputs[si] = stream.NewOutputWindow(r.scratchOut[si][:need], elem, slot[0].buf.WriteCursor())
	}

	var produced int
	var workErr error
	start := time.Now()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				workErr = errors.WrapFatal(
					fmt.Errorf("%v: %w", rec, errors.ErrWorkPanicked),
					"runner", "invoke", fmt.Sprintf("work on %q", r.name))
			}
		}()
		produced, workErr = r.blk.Work(ctx, inputs, outputs)
	}()
	duration := time.Since(start)

	if workErr != nil {
		if stderrors.Is(workErr, block.ErrDone) {
			return 0, 0, block.ErrDone
		}
		if errors.IsFatal(workErr) || errors.IsUsage(workErr) {
			return 0, 0, workErr
		}
		return 0, 0, errors.WrapFatal(workErr, "runner", "invoke", fmt.Sprintf("work on %q", r.name))
	}

	if produced < 0 || produced > offered {
		return 0, 0, errors.WrapUsage(
			fmt.Errorf("work on %q returned %d of %d offered", r.name, produced, offered),
			"runner", "invoke", "produced count validation")
	}
	if produced%r.rate.Interp != 0 {
		return 0, 0, errors.WrapUsage(
			fmt.Errorf("work on %q returned %d items, rate %s", r.name, produced, r.rate),
			"runner", "invoke", "rate alignment validation")
	}
	consumed := r.rate.InputItems(produced)

	tagsAdded, err := r.commitOutputs(outputs, inputs, produced, consumed)
	if err != nil {
		return 0, 0, err
	}

	pruned := 0
	for _, e := range r.inputs {
		if err := e.buf.Consume(consumed); err != nil {
			return 0, 0, err
		}
		pruned += e.tags.Prune(e.buf.ReadCursor())
	}

	r.sched.metrics.recordWork(r.name, duration, produced, consumed)
	r.sched.metrics.recordTags(r.name, tagsAdded, pruned)

	if produced > 0 || consumed > 0 {
		r.hmu.Lock()
		r.itemsTotal += int64(produced)
		r.lastActivity = time.Now()
		r.hmu.Unlock()
	}

	return produced, consumed, nil
}

// commitOutputs validates pending tags against the produced range, stores
// tags (including opted-in 1:1 propagation from inputs), then commits the
// produced bytes to every fanout edge.
func (r *runner) commitOutputs(
	outputs []*stream.OutputWindow, inputs []stream.InputWindow, produced, consumed int,
) (int, error) {
	tagsAdded := 0

	for si, slot := range r.outputs {
		w := outputs[si]
		bound := w.AbsOffset() + uint64(produced)

		for _, t := range w.Pending() {
			if t.Offset >= bound {
				return tagsAdded, errors.WrapUsage(
					fmt.Errorf("tag %q at %d, produced range ends at %d on %q: %w",
						t.Key, t.Offset, bound, r.name, errors.ErrTagOutOfRange),
					"runner", "commitOutputs", "tag range validation")
			}
			for _, e := range slot {
				e.tags.Add(t)
			}
			tagsAdded++
		}

		if r.propagate && r.rate == block.OneToOne() {
			for i := range inputs {
				inBase := inputs[i].AbsOffset()
				for _, t := range inputs[i].TagsInRange(inBase, inBase+uint64(consumed)) {
					shifted := t
					shifted.Offset = t.Offset - inBase + w.AbsOffset()
					for _, e := range slot {
						e.tags.Add(shifted)
					}
					tagsAdded++
				}
			}
		}

		if produced > 0 {
			data := w.Bytes()[:produced*w.ElemSize()]
			for _, e := range slot {
				if _, err := e.buf.Produce(data); err != nil {
					return tagsAdded, err
				}
			}
		}
	}

	return tagsAdded, nil
}

// dispatch drains pending messages on handler-bound input ports, bounded by
// the cascade limit. Ports without a handler accumulate for Drain. Runs
// under r.mu, so it never overlaps this block's Work.
func (r *runner) dispatch(ctx context.Context) (int, error) {
	if r.ports == nil {
		return 0, nil
	}

	delivered := 0
	for pass := 0; pass < r.sched.maxCascade; pass++ {
		if ctx.Err() != nil || r.stopReq.Load() {
			break
		}
		moved := false
		for _, name := range r.ports.InNames() {
			inbox, ok := r.ports.Inbox(name)
			if !ok {
				continue
			}
			handler := inbox.Handler()
			if handler == nil {
				continue // queue-and-drain mode
			}
			// Drain only what was queued when this pass started. A handler
			// republishing to its own inbox lands in the next cascade pass,
			// so the cascade bound holds even for self-loops.
			for n := inbox.Len(); n > 0; n-- {
				msg, ok := inbox.Pop()
				if !ok {
					break
				}
				if err := r.callHandler(ctx, handler, msg); err != nil {
					return delivered, err
				}
				delivered++
				moved = true
				r.sched.metrics.recordDelivered(r.name, name)
			}
		}
		if !moved {
			break
		}
	}

	for _, name := range r.ports.InNames() {
		inbox, ok := r.ports.Inbox(name)
		if !ok {
			continue
		}
		if total := inbox.Dropped(); total > r.dropSeen[name] {
			r.sched.metrics.recordDropped(r.name, name, total-r.dropSeen[name])
			r.dropSeen[name] = total
		}
	}

	if delivered > 0 {
		r.hmu.Lock()
		r.msgsTotal += int64(delivered)
		r.lastActivity = time.Now()
		r.hmu.Unlock()
	}
	return delivered, nil
}

func (r *runner) callHandler(ctx context.Context, handler block.Handler, msg block.Message) error {
	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = errors.WrapFatal(
					fmt.Errorf("%v: %w", rec, errors.ErrWorkPanicked),
					"runner", "callHandler", fmt.Sprintf("handler on %q port %q", r.name, msg.Port))
			}
		}()
		err = handler(ctx, msg)
	}()
	if err == nil {
		return nil
	}
	if errors.IsTransient(err) {
		// Transient delivery trouble (a full peer inbox, a flaky bridge)
		// drops this message and keeps the graph running.
		r.sched.logger.Warn("message handler dropped message",
			"block", r.name, "port", msg.Port, "error", err)
		r.sched.metrics.recordError(r.name, errors.ErrorTransient.String())
		return nil
	}
	if !errors.IsFatal(err) && !errors.IsUsage(err) {
		err = errors.WrapFatal(err, "runner", "callHandler",
			fmt.Sprintf("handler on %q port %q", r.name, msg.Port))
	}
	return err
}

func (r *runner) recordFailure(err error) {
	r.hmu.Lock()
	r.errorCount++
	r.lastError = err.Error()
	r.hmu.Unlock()
}

func (r *runner) kickNeighbors() {
	for _, e := range r.inputs {
		e.src.kickFn()
	}
	for _, slot := range r.outputs {
		for _, e := range slot {
			e.dst.kickFn()
		}
	}
}

func (r *runner) health() block.HealthStatus {
	r.hmu.Lock()
	defer r.hmu.Unlock()

	state := r.currentState()
	return block.HealthStatus{
		Healthy:    state != block.StateFailed,
		State:      state,
		LastCheck:  time.Now(),
		ErrorCount: r.errorCount,
		LastError:  r.lastError,
		Uptime:     time.Since(r.startTime),
	}
}

func (r *runner) flow() block.FlowMetrics {
	r.hmu.Lock()
	defer r.hmu.Unlock()

	elapsed := time.Since(r.startTime).Seconds()
	fm := block.FlowMetrics{LastActivity: r.lastActivity}
	if elapsed > 0 {
		fm.ItemsPerSecond = float64(r.itemsTotal) / elapsed
		fm.MessagesPerSecond = float64(r.msgsTotal) / elapsed
	}
	return fm
}
