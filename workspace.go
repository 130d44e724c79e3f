package shipit

import "context"

// EditAction reports whether WriteOrCreate modified an existing file or
// created a new one.
type EditAction string

const (
	EditActionEdit   EditAction = "edit"
	EditActionCreate EditAction = "create"
)

// Listing is the one-level directory listing of Path.
type Listing struct {
	Path    string
	Entries []string
}

// Workspace is the file system a run operates on. Paths are relative to the
// workspace root; the empty path means the root itself.
//
// WriteOrCreate replaces the first occurrence of *match with replacement when
// the file exists and match is non-nil. Otherwise it writes replacement as
// the whole file, creating it if needed.
type Workspace interface {
	List(ctx context.Context, path string) (Listing, error)
	Read(ctx context.Context, path string) (string, error)
	WriteOrCreate(ctx context.Context, path string, match *string, replacement string) (EditAction, error)
}
