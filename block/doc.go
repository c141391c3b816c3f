// Package block defines the unit of work of the runtime and the contracts a
// block author implements and consumes.
//
// A Block declares an I/O signature (element size per stream plus [min,max]
// stream-count bounds, validated at construction), holds private state, and
// exposes a Work operation invoked repeatedly by the scheduler over
// negotiated windows of items. Blocks with a non-1:1 cadence declare their
// rational rate via Rate.
//
// Blocks may also carry named message ports: an asynchronous, per-port FIFO
// side-channel decoupled from the sample clock. Ports is the embeddable
// helper providing register/publish/handler semantics; the scheduler owns
// delivery so a handler never runs concurrently with the same block's Work.
//
// The Registry maps factory names to constructors taking raw JSON
// configuration, mirroring how blocks are instantiated from external graph
// descriptions.
package block
