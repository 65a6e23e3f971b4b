package gitcli

// LocalBranchListing describes a local branch and whether it is checked out.
type LocalBranchListing struct {
	Name       string
	CheckedOut bool
}

// MergeResult reports the outcome of a successful merge.
type MergeResult struct {
	// Changed is false when git reported the branch was already up to date.
	Changed bool
	Output  string
}

// ObjectCounts summarizes `git count-objects` output.
type ObjectCounts struct {
	LooseObjects   int
	LooseKilobytes int
	Summary        string
}

// Compact reports whether the repository has no loose objects.
func (counts ObjectCounts) Compact() bool {
	return counts.LooseObjects == 0
}
