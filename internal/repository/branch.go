package repository

// BranchKind distinguishes the three branch namespaces a Repository reconciles.
type BranchKind int

// Branch kinds.
const (
	BranchKindLocal BranchKind = iota
	BranchKindRemoteTracking
	BranchKindRemote
)

const (
	branchKindLocalLabel          = "local"
	branchKindRemoteTrackingLabel = "remote-tracking"
	branchKindRemoteLabel         = "remote"
)

// String returns a lowercase label for the kind.
func (kind BranchKind) String() string {
	switch kind {
	case BranchKindRemoteTracking:
		return branchKindRemoteTrackingLabel
	case BranchKindRemote:
		return branchKindRemoteLabel
	default:
		return branchKindLocalLabel
	}
}

// TrackingKey identifies a remote-tracking branch within a Repository.
type TrackingKey struct {
	RemoteName string
	BranchName string
}

// Longname renders the key as "<remote>/<branch>".
func (key TrackingKey) Longname() string {
	return remoteTrackingLongname(key.RemoteName, key.BranchName)
}

type localBranchState struct {
	tracking *TrackingKey
}

type remoteTrackingBranchState struct {
	remoteName string
	trackedBy  string
}

type remoteBranchState struct {
	remoteName string
}

// Branch is a tagged variant over the local, remote-tracking and remote
// namespaces. Exactly one of the kind-specific payloads is set.
type Branch struct {
	kind   BranchKind
	name   string
	exists bool

	local          *localBranchState
	remoteTracking *remoteTrackingBranchState
	remote         *remoteBranchState
}

func newLocalBranch(name string, exists bool) *Branch {
	return &Branch{kind: BranchKindLocal, name: name, exists: exists, local: &localBranchState{}}
}

func newRemoteTrackingBranch(remoteName string, name string, exists bool) *Branch {
	return &Branch{
		kind:           BranchKindRemoteTracking,
		name:           name,
		exists:         exists,
		remoteTracking: &remoteTrackingBranchState{remoteName: remoteName},
	}
}

func newRemoteBranch(remoteName string, name string, exists bool) *Branch {
	return &Branch{kind: BranchKindRemote, name: name, exists: exists, remote: &remoteBranchState{remoteName: remoteName}}
}

// Kind reports which namespace the branch belongs to.
func (branch *Branch) Kind() BranchKind {
	return branch.kind
}

// Name returns the short branch name.
func (branch *Branch) Name() string {
	return branch.name
}

// Exists reports the last-known presence of the branch.
func (branch *Branch) Exists() bool {
	return branch.exists
}

// RemoteName returns the owning remote, or an empty string for local branches.
func (branch *Branch) RemoteName() string {
	switch branch.kind {
	case BranchKindRemoteTracking:
		return branch.remoteTracking.remoteName
	case BranchKindRemote:
		return branch.remote.remoteName
	default:
		return ""
	}
}

// Longname returns "<remote>/<name>" for remote-tracking and remote branches
// and the short name for local branches.
func (branch *Branch) Longname() string {
	remoteName := branch.RemoteName()
	if len(remoteName) == 0 {
		return branch.name
	}
	return remoteTrackingLongname(remoteName, branch.name)
}

// Tracking returns the upstream of a local branch.
func (branch *Branch) Tracking() (TrackingKey, bool) {
	if branch.kind != BranchKindLocal || branch.local.tracking == nil {
		return TrackingKey{}, false
	}
	return *branch.local.tracking, true
}

// TrackedBy returns the local branch tracking a remote-tracking branch.
func (branch *Branch) TrackedBy() (string, bool) {
	if branch.kind != BranchKindRemoteTracking || len(branch.remoteTracking.trackedBy) == 0 {
		return "", false
	}
	return branch.remoteTracking.trackedBy, true
}

func (branch *Branch) trackingKey() TrackingKey {
	return TrackingKey{RemoteName: branch.RemoteName(), BranchName: branch.name}
}
