package block

// State represents the current lifecycle state of a block under scheduling
type State int

const (
	// StateCreated indicates the block was constructed but not yet wired
	StateCreated State = iota
	// StateReady indicates the block is wired and waiting to be driven
	StateReady
	// StateRunning indicates the scheduler is driving the block
	StateRunning
	// StateDone indicates the block signalled completion and is no longer scheduled
	StateDone
	// StateFailed indicates the block failed during execution
	StateFailed
)

// String returns a string representation of the block state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
