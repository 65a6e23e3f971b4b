package repository

import "context"

const localBranchRemoteLabelConstant = "local"

// BranchRow is a flattened view of one branch for reporting.
type BranchRow struct {
	Remote   string
	Name     string
	Tracking string
	Kind     BranchKind
	Exists   bool
}

// BranchRows lists local branches, then each remote's remote-tracking and
// advertised branches.
func (repository *Repository) BranchRows() []BranchRow {
	var rows []BranchRow
	for _, localBranch := range repository.LocalBranches() {
		row := BranchRow{Remote: localBranchRemoteLabelConstant, Name: localBranch.name, Kind: localBranch.kind, Exists: localBranch.exists}
		if key, tracking := localBranch.Tracking(); tracking {
			row.Tracking = key.Longname()
		}
		rows = append(rows, row)
	}
	for _, remote := range repository.Remotes() {
		for _, branch := range append(remote.TrackingBranches(), remote.RemoteBranches()...) {
			rows = append(rows, BranchRow{Remote: remote.name, Name: branch.name, Kind: branch.kind, Exists: branch.exists})
		}
	}
	return rows
}

// Status detects branches and tracking links, optionally probing the
// advertised branches of every remote, and returns the resulting rows.
func (repository *Repository) Status(executionContext context.Context, includeRemoteBranches bool) []BranchRow {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	repository.DetectBranches(executionContext, false, true)
	if includeRemoteBranches {
		repository.DetectRemoteBranches(executionContext)
	}
	return repository.BranchRows()
}
