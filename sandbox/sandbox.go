// Package sandbox is a client for a JSON-over-HTTP sandbox service that
// provisions ephemeral environments holding a repository clone.
package sandbox

// API paths relative to the base URL.
const (
	sandboxesPath    = "/v1/sandboxes"
	defaultUserAgent = "shipit"
)

type createRequest struct {
	Source source `json:"source"`
}

type source struct {
	URL string `json:"url"`
}

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Entries []string `json:"entries"`
}

type contentResponse struct {
	Content string `json:"content"`
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type commandRequest struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args"`
}

type commandResponse struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
