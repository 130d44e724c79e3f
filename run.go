package shipit

// RunState is the state of the agent loop.
type RunState int

const (
	RunStateRunning RunState = iota
	RunStateDone
	RunStateExhausted
)

// String returns the upper-case state name.
func (s RunState) String() string {
	switch s {
	case RunStateRunning:
		return "RUNNING"
	case RunStateDone:
		return "DONE"
	case RunStateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// RunResult is what a finished run reports. Response is the text of the last
// assistant message; it may be empty when the run is exhausted.
type RunResult struct {
	Response string
	State    RunState
	Steps    int
	Usage    Usage
}
