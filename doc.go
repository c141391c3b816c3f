// Package gnuradio is a streaming dataflow runtime. Blocks declare stream
// signatures and a rational rate, process negotiated sample windows through
// a single work contract, and exchange control-plane messages over named
// ports. The scheduler runs each block on its own goroutine, matches rates
// across bounded sample buffers with absolute cursors, and reconciles
// offset-addressed tags alongside the samples they annotate.
//
// The packages compose bottom-up: pmt carries typed message and tag values,
// stream provides buffers, tags, and window views, block defines the work
// contract, signatures, and message ports, sched executes wired graphs, and
// blocks ships the built-in library. graph assembles flowgraphs from JSON
// definitions, and natsbridge connects message ports to NATS subjects.
package gnuradio
