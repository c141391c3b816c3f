// Package sched drives blocks against their stream edges and message ports.
//
// The scheduler owns one runner goroutine per block. Each pass a runner
// first drains pending messages into bound handlers, then computes how many
// items the block may produce this invocation from input availability,
// output free space, the block's rational rate, and any chunk limit; builds
// the window views; invokes Work; and commits the returned counts back to
// buffers and tag stores. The returned count is authoritative and final for
// the call: offered-but-unused capacity simply carries to the next pass.
//
// At most one Work call is in flight per block, and message handlers are
// dispatched on the same runner goroutine, so a handler never runs
// concurrently with its own block's Work. Different blocks run concurrently
// whenever their buffers permit; cursor metadata is the only shared state
// and is lock-protected inside stream.Buffer.
//
// A block making no progress is not an error: its runner yields with a
// jittered backoff and is woken early when an adjacent block commits or a
// message arrives. Work errors other than block.ErrDone, and panics, are
// fatal to the graph run; the scheduler stops the failed block and,
// conservatively, everything downstream of it.
//
// Graph construction, buffer-size policy, and thread-pool configuration
// belong to the caller: the scheduler consumes an already-decided topology
// through Connect and ConnectMessage.
package sched
