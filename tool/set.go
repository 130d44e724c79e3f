package tool

import "github.com/fwojciec/shipit"

// Local returns the tool set for a run against a local workspace.
func Local(ws shipit.Workspace) []Definition {
	return []Definition{
		ListFiles(ws),
		ReadFile(ws),
		EditFile(ws),
	}
}

// RemoteWorkspace is a workspace that also hands out its sandbox session.
type RemoteWorkspace interface {
	shipit.Workspace
	SessionSource
}

// Remote returns the tool set for a run against a sandboxed clone of repo.
func Remote(ws RemoteWorkspace, publisher shipit.Publisher, repo string) []Definition {
	return append(Local(ws), CreatePR(ws, publisher, repo))
}
