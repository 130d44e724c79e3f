package tool

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fwojciec/shipit"
)

// ListFilesTool returns the declaration for list_files.
func ListFilesTool() shipit.Tool {
	return shipit.Tool{
		Name:        "list_files",
		Description: "List files and directories at a given path. If no path is provided, lists files in the current directory.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": ["string", "null"],
					"description": "Optional relative path to list files from. Defaults to current directory if not provided."
				}
			}
		}`),
	}
}

type listArgs struct {
	Path *string `json:"path"`
}

type listResult struct {
	Path   string   `json:"path"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

// ListFiles returns the list_files definition bound to ws.
func ListFiles(ws shipit.Workspace) Definition {
	return Definition{
		Tool: ListFilesTool(),
		Execute: func(ctx context.Context, raw json.RawMessage) (*shipit.ToolResult, error) {
			var a listArgs
			if err := decodeArgs(raw, &a); err != nil {
				return protocolError("list_files", err), nil
			}
			var p string
			if a.Path != nil {
				p = *a.Path
			}
			listing, err := ws.List(ctx, p)
			if err != nil {
				msg := err.Error()
				if errors.Is(err, shipit.ErrAccessDenied) {
					msg = "You cannot read the path: " + p
				}
				return errorResult(listResult{Path: p, Error: msg, Kind: shipit.ErrorKind(err)}), nil
			}
			out := listing.Entries
			if out == nil {
				out = []string{}
			}
			return okResult(struct {
				Path   string   `json:"path"`
				Output []string `json:"output"`
			}{listing.Path, out}), nil
		},
	}
}

// ReadFileTool returns the declaration for read_file.
func ReadFileTool() shipit.Tool {
	return shipit.Tool{
		Name:        "read_file",
		Description: "Read the contents of a given relative file path. Use this when you want to see what's inside a file. Do not use this with directory names.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "The relative path of a file in the working directory."
				}
			},
			"required": ["path"]
		}`),
	}
}

type readArgs struct {
	Path *string `json:"path"`
}

type readResult struct {
	Path   string `json:"path"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// ReadFile returns the read_file definition bound to ws.
func ReadFile(ws shipit.Workspace) Definition {
	return Definition{
		Tool: ReadFileTool(),
		Execute: func(ctx context.Context, raw json.RawMessage) (*shipit.ToolResult, error) {
			var a readArgs
			if err := decodeArgs(raw, &a); err != nil {
				return protocolError("read_file", err), nil
			}
			if a.Path == nil {
				return protocolError("read_file", required("path")), nil
			}
			content, err := ws.Read(ctx, *a.Path)
			if err != nil {
				return errorResult(readResult{Path: *a.Path, Error: err.Error(), Kind: shipit.ErrorKind(err)}), nil
			}
			return okResult(struct {
				Path   string `json:"path"`
				Output string `json:"output"`
			}{*a.Path, content}), nil
		},
	}
}

// EditFileTool returns the declaration for edit_file.
func EditFileTool() shipit.Tool {
	return shipit.Tool{
		Name:        "edit_file",
		Description: "Make edits to a text file. Replaces 'old_str' with 'new_str' in the given file. 'old_str' and 'new_str' MUST be different from each other. If the file specified with path doesn't exist, it will be created. Pass null for 'old_str' to write 'new_str' as the whole file.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "The path to the file"
				},
				"old_str": {
					"type": ["string", "null"],
					"description": "Text to search for - must match exactly and must only have one match exactly"
				},
				"new_str": {
					"type": "string",
					"description": "Text to replace old_str with"
				}
			},
			"required": ["path", "new_str"]
		}`),
	}
}

type editArgs struct {
	Path   *string `json:"path"`
	OldStr *string `json:"old_str"`
	NewStr *string `json:"new_str"`
}

type editResult struct {
	Path    string `json:"path,omitempty"`
	Success bool   `json:"success"`
	Action  string `json:"action,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// EditFile returns the edit_file definition bound to ws.
func EditFile(ws shipit.Workspace) Definition {
	return Definition{
		Tool: EditFileTool(),
		Execute: func(ctx context.Context, raw json.RawMessage) (*shipit.ToolResult, error) {
			var a editArgs
			if err := decodeArgs(raw, &a); err != nil {
				return protocolError("edit_file", err), nil
			}
			if a.Path == nil {
				return protocolError("edit_file", required("path")), nil
			}
			if a.NewStr == nil {
				return protocolError("edit_file", required("new_str")), nil
			}
			action, err := ws.WriteOrCreate(ctx, *a.Path, a.OldStr, *a.NewStr)
			if err != nil {
				return errorResult(editResult{Error: err.Error(), Kind: shipit.ErrorKind(err)}), nil
			}
			return okResult(editResult{Path: *a.Path, Success: true, Action: string(action)}), nil
		},
	}
}
