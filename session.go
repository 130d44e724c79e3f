package shipit

import "time"

// Session is the transcript of a single agent run. It lives only as long as
// the run that created it.
type Session struct {
	ID           string
	Messages     []Message
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
