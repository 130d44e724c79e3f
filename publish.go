package shipit

import "context"

// PullRequest describes the change request opened at the end of a remote run.
// A nil Branch lets the publisher choose one.
type PullRequest struct {
	Title  string
	Body   string
	Branch *string
}

// Publisher turns the working-tree changes of a sandbox session into a pull
// request and returns its URL. Errors wrap ErrPublish.
type Publisher interface {
	Publish(ctx context.Context, session SandboxSession, repo string, pr PullRequest) (string, error)
}
