package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TTCRadio/gnuradio/errors"
	"github.com/TTCRadio/gnuradio/pmt"
)

// DefaultInboxDepth bounds a port's pending-message queue. Overflow drops the
// new message and reports a transient error to the publisher; it never blocks
// the publishing call.
const DefaultInboxDepth = 1024

// Message is an immutable discrete value passed through exactly one named
// port. Delivery order matches post order per port; no ordering is guaranteed
// across ports or against the sample-synchronous path.
type Message struct {
	ID       string    `json:"id"`
	From     string    `json:"from"` // publishing block name
	Port     string    `json:"port"` // destination input port name
	Value    pmt.Value `json:"value"`
	PostedAt time.Time `json:"posted_at"`
}

// Handler is invoked once per delivered message on an input port. The
// scheduler guarantees a handler never runs concurrently with the owning
// block's Work call. Handlers may themselves Publish (cascading messages).
type Handler func(ctx context.Context, msg Message) error

// Inbox is the FIFO queue of one input port. A port with a bound handler is
// drained by the scheduler into handler calls; a port without one accumulates
// messages for synchronous retrieval via Drain.
type Inbox struct {
	mu      sync.Mutex
	owner   string
	port    string
	queue   []Message
	depth   int
	handler Handler
	notify  func()

	dropped atomic.Int64
}

func newInbox(owner, port string, depth int) *Inbox {
	if depth <= 0 {
		depth = DefaultInboxDepth
	}
	return &Inbox{owner: owner, port: port, depth: depth}
}

// Owner returns the name of the block this inbox belongs to.
func (in *Inbox) Owner() string { return in.owner }

// Port returns the input port name.
func (in *Inbox) Port() string { return in.port }

// Push enqueues a message, waking the owner's runner if a notify hook is
// installed. A full inbox drops the message and returns a transient error.
func (in *Inbox) Push(msg Message) error {
	in.mu.Lock()
	if len(in.queue) >= in.depth {
		in.mu.Unlock()
		in.dropped.Add(1)
		return errors.WrapTransient(
			fmt.Errorf("port %q on %q at depth %d: %w", in.port, in.owner, in.depth, errors.ErrInboxFull),
			"Inbox", "Push", "enqueue")
	}
	in.queue = append(in.queue, msg)
	notify := in.notify
	in.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// Pop removes and returns the oldest pending message.
func (in *Inbox) Pop() (Message, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.queue) == 0 {
		return Message{}, false
	}
	msg := in.queue[0]
	copy(in.queue, in.queue[1:])
	in.queue[len(in.queue)-1] = Message{}
	in.queue = in.queue[:len(in.queue)-1]
	return msg, true
}

// Drain removes and returns up to max pending messages in FIFO order.
// max <= 0 drains everything.
func (in *Inbox) Drain(max int) []Message {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := len(in.queue)
	if n == 0 {
		return nil
	}
	if max > 0 && max < n {
		n = max
	}

	out := make([]Message, n)
	copy(out, in.queue[:n])
	remaining := copy(in.queue, in.queue[n:])
	for i := remaining; i < len(in.queue); i++ {
		in.queue[i] = Message{}
	}
	in.queue = in.queue[:remaining]
	return out
}

// Len returns the number of pending messages.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Handler returns the bound handler, or nil for queue-and-drain mode.
func (in *Inbox) Handler() Handler {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.handler
}

func (in *Inbox) setHandler(h Handler) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.handler = h
}

// SetNotify installs the scheduler's wake hook, invoked after each Push.
func (in *Inbox) SetNotify(fn func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.notify = fn
}

// Dropped returns the number of messages dropped due to a full inbox.
func (in *Inbox) Dropped() int64 {
	return in.dropped.Load()
}

// outPort fans a published message out to every subscribed inbox. The
// per-port mutex keeps fanout order stable so per-port FIFO holds even with
// concurrent publishers.
type outPort struct {
	mu   sync.Mutex
	name string
	subs []*Inbox
}

// Ports provides the message-port surface of a block. Embed it in a block
// struct to satisfy MessagePorter. The zero value is usable; registration
// methods are called at construction time, before scheduling starts.
type Ports struct {
	mu        sync.RWMutex
	owner     string
	depth     int
	in        map[string]*Inbox
	out       map[string]*outPort
	published func(port string)
}

// MessagePorts implements MessagePorter for blocks embedding Ports.
func (p *Ports) MessagePorts() *Ports { return p }

// SetOwner records the owning block's name used in message envelopes and
// diagnostics. Call it once at construction.
func (p *Ports) SetOwner(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owner = name
}

// SetPublishHook installs the scheduler's accounting hook, invoked once per
// Publish to a registered port.
func (p *Ports) SetPublishHook(fn func(port string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = fn
}

// SetInboxDepth overrides DefaultInboxDepth for ports registered afterwards.
func (p *Ports) SetInboxDepth(depth int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.depth = depth
}

// RegisterIn declares a named input port. Duplicate registration of the same
// direction+name is a construction error.
func (p *Ports) RegisterIn(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.in == nil {
		p.in = make(map[string]*Inbox)
	}
	if _, exists := p.in[name]; exists {
		return errors.WrapConstruction(
			fmt.Errorf("input port %q: %w", name, errors.ErrDuplicatePort),
			"Ports", "RegisterIn", "duplicate port check")
	}
	p.in[name] = newInbox(p.owner, name, p.depth)
	return nil
}

// RegisterOut declares a named output port. Duplicate registration of the
// same direction+name is a construction error.
func (p *Ports) RegisterOut(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		p.out = make(map[string]*outPort)
	}
	if _, exists := p.out[name]; exists {
		return errors.WrapConstruction(
			fmt.Errorf("output port %q: %w", name, errors.ErrDuplicatePort),
			"Ports", "RegisterOut", "duplicate port check")
	}
	p.out[name] = &outPort{name: name}
	return nil
}

// SetHandler binds a callback invoked once per delivered message on an input
// port. Without a handler the port runs in queue-and-drain mode.
func (p *Ports) SetHandler(name string, h Handler) error {
	p.mu.RLock()
	inbox, exists := p.in[name]
	p.mu.RUnlock()

	if !exists {
		return errors.WrapUsage(
			fmt.Errorf("input port %q: %w", name, errors.ErrPortNotFound),
			"Ports", "SetHandler", "port lookup")
	}
	inbox.setHandler(h)
	return nil
}

// Publish enqueues value for every inbox connected to the named output port
// and returns immediately; delivery happens on the scheduler's timeline.
// Publishing to an unregistered port is a usage error. Full destination
// inboxes drop the message for that destination and surface a transient
// error after the remaining fanout completes.
func (p *Ports) Publish(name string, value pmt.Value) error {
	p.mu.RLock()
	out, exists := p.out[name]
	owner := p.owner
	published := p.published
	p.mu.RUnlock()

	if !exists {
		return errors.WrapUsage(
			fmt.Errorf("output port %q: %w", name, errors.ErrPortNotFound),
			"Ports", "Publish", "port lookup")
	}
	if published != nil {
		published(name)
	}

	msg := Message{
		ID:       uuid.New().String(),
		From:     owner,
		Value:    value,
		PostedAt: time.Now(),
	}

	out.mu.Lock()
	defer out.mu.Unlock()

	var firstErr error
	for _, inbox := range out.subs {
		m := msg
		m.Port = inbox.Port()
		if err := inbox.Push(m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe wires an output port to a destination inbox. Called by the
// graph-assembly collaborator, not by blocks.
func (p *Ports) Subscribe(outName string, inbox *Inbox) error {
	p.mu.RLock()
	out, exists := p.out[outName]
	p.mu.RUnlock()

	if !exists {
		return errors.WrapConstruction(
			fmt.Errorf("output port %q: %w", outName, errors.ErrPortNotFound),
			"Ports", "Subscribe", "port lookup")
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	out.subs = append(out.subs, inbox)
	return nil
}

// Inbox returns the inbox of a registered input port.
func (p *Ports) Inbox(name string) (*Inbox, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inbox, exists := p.in[name]
	return inbox, exists
}

// InNames returns the registered input port names, sorted.
func (p *Ports) InNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.in))
	for name := range p.in {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutNames returns the registered output port names, sorted.
func (p *Ports) OutNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.out))
	for name := range p.out {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPending reports whether any input port has undelivered messages.
func (p *Ports) HasPending() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, inbox := range p.in {
		if inbox.Len() > 0 {
			return true
		}
	}
	return false
}
