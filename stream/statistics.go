package stream

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks buffer performance metrics.
type Statistics struct {
	// Atomic counters for thread-safe updates
	produced int64
	consumed int64
	peeks    int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentFill int64
	maxFill     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Produce records items committed by the producer.
func (s *Statistics) Produce(n int64) {
	atomic.AddInt64(&s.produced, n)
}

// Consume records items released by the consumer.
func (s *Statistics) Consume(n int64) {
	atomic.AddInt64(&s.consumed, n)
}

// Peek records a non-consuming read.
func (s *Statistics) Peek() {
	atomic.AddInt64(&s.peeks, 1)
}

// UpdateFill updates the current buffer fill level.
func (s *Statistics) UpdateFill(fill int64) {
	s.mu.Lock()
	s.currentFill = fill
	if fill > s.maxFill {
		s.maxFill = fill
	}
	s.mu.Unlock()
}

// Produced returns the total items committed.
func (s *Statistics) Produced() int64 {
	return atomic.LoadInt64(&s.produced)
}

// Consumed returns the total items released.
func (s *Statistics) Consumed() int64 {
	return atomic.LoadInt64(&s.consumed)
}

// Peeks returns the total number of peek operations.
func (s *Statistics) Peeks() int64 {
	return atomic.LoadInt64(&s.peeks)
}

// CurrentFill returns the current number of unconsumed items.
func (s *Statistics) CurrentFill() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFill
}

// MaxFill returns the highest fill level the buffer has held.
func (s *Statistics) MaxFill() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxFill
}

// Throughput returns the average number of items produced per second.
func (s *Statistics) Throughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}

	return float64(s.Produced()) / elapsed.Seconds()
}

// Utilization returns the current fill as a fraction of capacity (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}
	return float64(s.CurrentFill()) / float64(capacity)
}

// Uptime returns how long the buffer has been in service.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.produced, 0)
	atomic.StoreInt64(&s.consumed, 0)
	atomic.StoreInt64(&s.peeks, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentFill = 0
	s.maxFill = 0
	s.mu.Unlock()
}
