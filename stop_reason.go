package shipit

// StopReason is the normalized reason a model round ended.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopLength  StopReason = "length"
	StopToolUse StopReason = "tool_use"
	StopError   StopReason = "error"
	StopAborted StopReason = "aborted"
)

// Terminal reports whether the round ended without the model finishing its
// turn normally.
func (r StopReason) Terminal() bool {
	return r == StopError || r == StopAborted
}
