package repository

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Remote is a named upstream with its URLs and the branches known beneath it.
type Remote struct {
	name      string
	canonical bool
	urls      map[string]string

	trackingBranches *orderedmap.OrderedMap[string, *Branch]
	remoteBranches   *orderedmap.OrderedMap[string, *Branch]
}

func newRemote(name string, canonical bool) *Remote {
	return &Remote{
		name:             name,
		canonical:        canonical,
		urls:             map[string]string{},
		trackingBranches: orderedmap.New[string, *Branch](),
		remoteBranches:   orderedmap.New[string, *Branch](),
	}
}

// Name returns the remote name.
func (remote *Remote) Name() string {
	return remote.name
}

// IsCanonical reports whether the remote is flagged as the synchronization source.
func (remote *Remote) IsCanonical() bool {
	return remote.canonical
}

// URL returns the URL stored under role.
func (remote *Remote) URL(role string) (string, bool) {
	value, found := remote.urls[role]
	return value, found
}

// URLs returns a copy of the role to URL mapping.
func (remote *Remote) URLs() map[string]string {
	copied := make(map[string]string, len(remote.urls))
	for role, value := range remote.urls {
		copied[role] = value
	}
	return copied
}

// TrackingBranch looks up a remote-tracking branch by short name.
func (remote *Remote) TrackingBranch(name string) (*Branch, bool) {
	return remote.trackingBranches.Get(name)
}

// TrackingBranches returns remote-tracking branches in detection order.
func (remote *Remote) TrackingBranches() []*Branch {
	return orderedValues(remote.trackingBranches)
}

// RemoteBranches returns the advertised branches in detection order.
func (remote *Remote) RemoteBranches() []*Branch {
	return orderedValues(remote.remoteBranches)
}

func (remote *Remote) trackingBranchFor(name string) *Branch {
	if branch, found := remote.trackingBranches.Get(name); found {
		return branch
	}
	branch := newRemoteTrackingBranch(remote.name, name, false)
	remote.trackingBranches.Set(name, branch)
	return branch
}

func (remote *Remote) remoteBranchFor(name string) *Branch {
	if branch, found := remote.remoteBranches.Get(name); found {
		return branch
	}
	branch := newRemoteBranch(remote.name, name, false)
	remote.remoteBranches.Set(name, branch)
	return branch
}

func orderedValues[V any](source *orderedmap.OrderedMap[string, V]) []V {
	values := make([]V, 0, source.Len())
	for pair := source.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

func orderedKeys[V any](source *orderedmap.OrderedMap[string, V]) []string {
	keys := make([]string, 0, source.Len())
	for pair := source.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
