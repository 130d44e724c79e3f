package shipit

// Theme maps UI roles to ANSI color indices (0-15) so output follows the
// terminal's own palette.
type Theme struct {
	Step    int // Step counter
	Tool    int // Tool call names
	Error   int // Failed tool results and run errors
	Success int // Successful tool results, DONE state
	Warning int // EXHAUSTED state
	Muted   int // Arguments, status line
	CodeBg  int // Code block background
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Step:    4,
		Tool:    3,
		Error:   1,
		Success: 2,
		Warning: 3,
		Muted:   8,
		CodeBg:  0,
		Accent:  5,
	}
}
