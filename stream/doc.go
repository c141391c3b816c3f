// Package stream provides the per-edge data plane of the runtime: a
// fixed-capacity sample buffer with monotonic absolute cursors, offset-indexed
// tag storage, and the window views handed to a block's work invocation.
//
// A Buffer holds produced-but-unconsumed items between the block that
// produced them and the block that will consume them. Elements are opaque
// bytes of a fixed size declared per stream. Both cursors are absolute item
// indexes starting at 0 and only ever advance by confirmed consumption or
// production, so offsets stay stable across buffering.
//
// A TagStore keeps (offset, key, value, source) annotations for one stream in
// non-decreasing offset order. Tags are immutable once added and are pruned
// only after the consumer's read cursor has moved past them.
//
// Statistics are always collected for observability. Prometheus export is
// optional via the WithMetrics functional option.
package stream
