package stream

import (
	"fmt"
	"sync"

	"github.com/TTCRadio/gnuradio/errors"
)

// Buffer is a thread-safe circular sample buffer for one stream edge.
//
// The producer writes ahead of the write cursor and the consumer reads behind
// it; the two access windows never overlap, so only the cursor metadata is
// locked, never the element contents mid-transfer. Cursors are absolute item
// indexes and never move backwards.
type Buffer struct {
	mu       sync.Mutex
	elemSize int
	capacity int    // in items
	data     []byte // capacity * elemSize

	readCursor  uint64 // absolute index of the next unconsumed item
	writeCursor uint64 // absolute index of the next item to produce

	closed  bool
	stats   *Statistics
	metrics *bufferMetrics

	// Commit notifications, set once at wiring time before any transfer.
	onProduce func()
	onConsume func()
}

// NewBuffer creates a buffer holding capacityItems elements of elemSize bytes.
// Returns an error if metrics registration fails when requested.
func NewBuffer(elemSize, capacityItems int, opts ...Option) (*Buffer, error) {
	if elemSize <= 0 {
		return nil, errors.WrapConstruction(
			fmt.Errorf("element size %d", elemSize),
			"Buffer", "NewBuffer", "element size validation")
	}
	if capacityItems <= 0 {
		capacityItems = 1 // Minimum capacity
	}

	options := applyOptions(opts...)

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *bufferMetrics
	if options.metricsReg != nil && options.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(options.metricsReg, options.metricsPrefix, capacityItems)
		if err != nil {
			return nil, errors.WrapTransient(err, "Buffer", "NewBuffer", "metrics registration")
		}
	}

	return &Buffer{
		elemSize: elemSize,
		capacity: capacityItems,
		data:     make([]byte, elemSize*capacityItems),
		stats:    stats,
		metrics:  metrics,
	}, nil
}

// ElemSize returns the element size in bytes.
func (b *Buffer) ElemSize() int { return b.elemSize }

// Capacity returns the buffer capacity in items.
func (b *Buffer) Capacity() int { return b.capacity }

// Available returns the number of produced-but-unconsumed items.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.writeCursor - b.readCursor)
}

// Free returns the number of items that can be produced without overrunning
// the consumer.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity - int(b.writeCursor-b.readCursor)
}

// ReadCursor returns the absolute index of the next unconsumed item.
func (b *Buffer) ReadCursor() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readCursor
}

// WriteCursor returns the absolute index of the next item to produce.
func (b *Buffer) WriteCursor() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeCursor
}

// Produce copies whole items from p into the buffer and advances the write
// cursor. The byte count must be a multiple of the element size and the item
// count must fit in the free space; the returned count is the items written.
func (b *Buffer) Produce(p []byte) (int, error) {
	if len(p)%b.elemSize != 0 {
		return 0, errors.WrapUsage(errors.ErrPartialElement, "Buffer", "Produce", "length validation")
	}
	n := len(p) / b.elemSize

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, errors.WrapFatal(errors.ErrBufferClosed, "Buffer", "Produce", "closed check")
	}

	free := b.capacity - int(b.writeCursor-b.readCursor)
	if n > free {
		b.mu.Unlock()
		return 0, errors.WrapUsage(
			fmt.Errorf("%d items offered, %d free", n, free),
			"Buffer", "Produce", "capacity check")
	}

	start := int(b.writeCursor%uint64(b.capacity)) * b.elemSize
	first := len(b.data) - start
	if first > len(p) {
		first = len(p)
	}
	copy(b.data[start:start+first], p[:first])
	copy(b.data[:len(p)-first], p[first:])

	b.writeCursor += uint64(n)
	fill := int(b.writeCursor - b.readCursor)

	// ALWAYS track in stats
	b.stats.Produce(int64(n))
	b.stats.UpdateFill(int64(fill))

	// ALSO track in metrics if enabled
	if b.metrics != nil {
		b.metrics.recordProduce(n, fill)
	}

	notify := b.onProduce
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
	return n, nil
}

// Peek copies up to len(dst)/ElemSize whole items from the read cursor into
// dst without consuming them. Returns the number of items copied.
func (b *Buffer) Peek(dst []byte) int {
	want := len(dst) / b.elemSize

	b.mu.Lock()
	defer b.mu.Unlock()

	avail := int(b.writeCursor - b.readCursor)
	n := want
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	start := int(b.readCursor%uint64(b.capacity)) * b.elemSize
	total := n * b.elemSize
	first := len(b.data) - start
	if first > total {
		first = total
	}
	copy(dst[:first], b.data[start:start+first])
	copy(dst[first:total], b.data[:total-first])

	b.stats.Peek()
	return n
}

// Consume advances the read cursor by n items, releasing their space to the
// producer. Consuming more than is available is a usage error.
func (b *Buffer) Consume(n int) error {
	if n < 0 {
		return errors.WrapUsage(
			fmt.Errorf("negative count %d", n),
			"Buffer", "Consume", "count validation")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.WrapFatal(errors.ErrBufferClosed, "Buffer", "Consume", "closed check")
	}

	avail := int(b.writeCursor - b.readCursor)
	if n > avail {
		b.mu.Unlock()
		return errors.WrapUsage(
			fmt.Errorf("%d items requested, %d available", n, avail),
			"Buffer", "Consume", "availability check")
	}

	b.readCursor += uint64(n)
	fill := int(b.writeCursor - b.readCursor)

	b.stats.Consume(int64(n))
	b.stats.UpdateFill(int64(fill))

	if b.metrics != nil {
		b.metrics.recordConsume(n, fill)
	}

	notify := b.onConsume
	b.mu.Unlock()

	if notify != nil && n > 0 {
		notify()
	}
	return nil
}

// OnProduce installs a callback invoked after each successful Produce. Must
// be set before the buffer is put into service.
func (b *Buffer) OnProduce(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onProduce = fn
}

// OnConsume installs a callback invoked after each successful Consume. Must
// be set before the buffer is put into service.
func (b *Buffer) OnConsume(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConsume = fn
}

// Stats returns buffer statistics (always available for observability).
func (b *Buffer) Stats() *Statistics {
	return b.stats
}

// Closed reports whether the buffer has been shut down.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close shuts down the buffer. Further Produce/Consume calls fail.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return nil
}
