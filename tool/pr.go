package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/shipit"
)

// SessionSource hands out the run's sandbox session, provisioning it on
// first call. *workspace.Remote implements it.
type SessionSource interface {
	Session(ctx context.Context) (shipit.SandboxSession, error)
}

// CreatePRTool returns the declaration for create_pr.
func CreatePRTool() shipit.Tool {
	return shipit.Tool{
		Name:        "create_pr",
		Description: "Create a pull request with the current changes. This will add all files, commit changes, push to a new branch, and create a PR using GitHub's REST API. Use this as the final step when making changes.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"description": "The title of the pull request"
				},
				"body": {
					"type": "string",
					"description": "The body/description of the pull request"
				},
				"branch": {
					"type": ["string", "null"],
					"description": "The name of the branch to create (defaults to a generated name)"
				}
			},
			"required": ["title", "body"]
		}`),
	}
}

type prArgs struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Branch *string `json:"branch"`
}

// CreatePR returns the create_pr definition. Publishing failures are
// returned as errors wrapping shipit.ErrPublish and end the run.
func CreatePR(src SessionSource, publisher shipit.Publisher, repo string) Definition {
	return Definition{
		Tool: CreatePRTool(),
		Execute: func(ctx context.Context, raw json.RawMessage) (*shipit.ToolResult, error) {
			var a prArgs
			if err := decodeArgs(raw, &a); err != nil {
				return protocolError("create_pr", err), nil
			}
			if a.Title == nil || *a.Title == "" {
				return protocolError("create_pr", required("title")), nil
			}
			body := ""
			if a.Body != nil {
				body = *a.Body
			}
			if a.Branch != nil && *a.Branch == "" {
				a.Branch = nil
			}

			session, err := src.Session(ctx)
			if err != nil {
				return nil, fmt.Errorf("create_pr: %v: %w", err, shipit.ErrPublish)
			}
			url, err := publisher.Publish(ctx, session, repo, shipit.PullRequest{
				Title:  *a.Title,
				Body:   body,
				Branch: a.Branch,
			})
			if err != nil {
				if errors.Is(err, shipit.ErrPublish) {
					return nil, fmt.Errorf("create_pr: %w", err)
				}
				return nil, fmt.Errorf("create_pr: %v: %w", err, shipit.ErrPublish)
			}
			return okResult(struct {
				Success  bool   `json:"success"`
				LinkToPR string `json:"linkToPR"`
			}{true, url}), nil
		},
	}
}
