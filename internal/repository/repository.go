package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

const (
	logFieldRepositoryPathConstant   = "repository_path"
	logFieldBranchConstant           = "branch"
	logFieldRemoteConstant           = "remote"
	logFieldKeyConstant              = "key"
	listRemotesErrorTemplateConstant = "list remotes of %s: %w"
	trackingMismatchMessageConstant  = "tracking links disagree"
	missingTrackingTargetTemplate    = "%s: local branch %s tracks unknown %s"
	unreciprocatedTrackingTemplate   = "%s: local branch %s tracks %s which is tracked by %q"
	unknownTrackingHolderTemplate    = "%s: %s is tracked by unknown local branch %s"
	mismatchedTrackingHolderTemplate = "%s: %s is tracked by %s which tracks %s"
	trackingMismatchWrapTemplate     = "%w: %s"
)

// ErrTrackingLinkMismatch indicates the local and remote-tracking sides of a link disagree.
var ErrTrackingLinkMismatch = errors.New(trackingMismatchMessageConstant)

// Attribute is one persisted "<remote>.<role>" to URL pair.
type Attribute struct {
	Key   string
	Value string
}

// Repository is a checkout at path together with its remotes and local branches.
type Repository struct {
	// mutex serializes the Cmd operations.
	mutex sync.Mutex

	path     string
	active   atomic.Bool
	detected bool

	remotes  *orderedmap.OrderedMap[string, *Remote]
	branches *orderedmap.OrderedMap[string, *Branch]

	executor Executor
	notifier Notifier
	prompter Prompter
	logger   *zap.Logger
}

func newRepository(repositoryPath string, collaborators Collaborators) (*Repository, error) {
	normalizedCollaborators, validationError := collaborators.normalized()
	if validationError != nil {
		return nil, validationError
	}
	return &Repository{
		path:     repositoryPath,
		remotes:  orderedmap.New[string, *Remote](),
		branches: orderedmap.New[string, *Branch](),
		executor: normalizedCollaborators.Executor,
		notifier: normalizedCollaborators.Notifier,
		prompter: normalizedCollaborators.Prompter,
		logger:   normalizedCollaborators.Logger.With(zap.String(logFieldRepositoryPathConstant, repositoryPath)),
	}, nil
}

// NewFromAttributes builds a Repository from persisted "<remote>.<role>" pairs.
// The first remote encountered is canonical. Branch sets start empty.
func NewFromAttributes(repositoryPath string, attributes []Attribute, collaborators Collaborators) (*Repository, error) {
	repository, creationError := newRepository(repositoryPath, collaborators)
	if creationError != nil {
		return nil, creationError
	}
	for _, attribute := range attributes {
		remoteName, role := splitAttributeKey(attribute.Key)
		remote, known := repository.remotes.Get(remoteName)
		if !known {
			remote = newRemote(remoteName, repository.remotes.Len() == 0)
			repository.remotes.Set(remoteName, remote)
		}
		remote.urls[role] = attribute.Value
	}
	return repository, nil
}

// NewFromCheckout builds a Repository by reading the remote configuration of an
// existing checkout. A remote named origin is canonical; otherwise the first one is.
func NewFromCheckout(executionContext context.Context, repositoryPath string, collaborators Collaborators) (*Repository, error) {
	repository, creationError := newRepository(repositoryPath, collaborators)
	if creationError != nil {
		return nil, creationError
	}
	remoteNames, listError := repository.executor.ListRemotes(executionContext, repositoryPath)
	if listError != nil {
		return nil, fmt.Errorf(listRemotesErrorTemplateConstant, repositoryPath, listError)
	}
	for _, remoteName := range remoteNames {
		remote := newRemote(remoteName, false)
		for _, role := range []string{RemoteURLRoleFetch, RemoteURLRolePush} {
			value, found, readError := repository.executor.GetConfigValue(executionContext, repositoryPath, remoteConfigurationKey(remoteName, role))
			if readError != nil {
				repository.logger.Warn("remote url unreadable", zap.String(logFieldRemoteConstant, remoteName), zap.String(logFieldKeyConstant, role), zap.Error(readError))
				continue
			}
			if found {
				remote.urls[role] = value
			}
		}
		repository.remotes.Set(remoteName, remote)
	}
	if originRemote, found := repository.remotes.Get(CanonicalRemoteNameConstant); found {
		originRemote.canonical = true
	} else if firstRemote := repository.remotes.Oldest(); firstRemote != nil {
		firstRemote.Value.canonical = true
	}
	return repository, nil
}

// Path returns the repository location, which is also its identity.
func (repository *Repository) Path() string {
	return repository.path
}

// IsActive reports whether the repository is selected for the current run.
func (repository *Repository) IsActive() bool {
	return repository.active.Load()
}

// SetActive selects or deselects the repository.
func (repository *Repository) SetActive(active bool) {
	repository.active.Store(active)
}

// Remote looks up a remote by name.
func (repository *Repository) Remote(name string) (*Remote, bool) {
	return repository.remotes.Get(name)
}

// Remotes returns remotes in insertion order.
func (repository *Repository) Remotes() []*Remote {
	return orderedValues(repository.remotes)
}

// LocalBranch looks up a local branch by name.
func (repository *Repository) LocalBranch(name string) (*Branch, bool) {
	return repository.branches.Get(name)
}

// LocalBranches returns local branches in detection order.
func (repository *Repository) LocalBranches() []*Branch {
	return orderedValues(repository.branches)
}

// AllBranches returns local branches followed by each remote's remote-tracking branches.
func (repository *Repository) AllBranches() []*Branch {
	allBranches := repository.LocalBranches()
	for remotePair := repository.remotes.Oldest(); remotePair != nil; remotePair = remotePair.Next() {
		allBranches = append(allBranches, remotePair.Value.TrackingBranches()...)
	}
	return allBranches
}

// CanonicalRemote selects the synchronization source: the flagged remote, then
// a remote named origin, then the first remote. It returns nil when there are no remotes.
func (repository *Repository) CanonicalRemote() *Remote {
	for remotePair := repository.remotes.Oldest(); remotePair != nil; remotePair = remotePair.Next() {
		if remotePair.Value.canonical {
			return remotePair.Value
		}
	}
	if originRemote, found := repository.remotes.Get(CanonicalRemoteNameConstant); found {
		return originRemote
	}
	if firstRemote := repository.remotes.Oldest(); firstRemote != nil {
		return firstRemote.Value
	}
	return nil
}

// AttributesToConfiguration renders the remote configuration as ordered pairs:
// the canonical remote first and the rest by name, with the fetch URL ahead of
// the other roles, which follow in name order.
func (repository *Repository) AttributesToConfiguration() []Attribute {
	remoteNames := orderedKeys(repository.remotes)
	sort.Strings(remoteNames)
	for remotePair := repository.remotes.Oldest(); remotePair != nil; remotePair = remotePair.Next() {
		if remotePair.Value.canonical {
			remoteNames = moveToFront(remoteNames, remotePair.Key)
			break
		}
	}

	var attributes []Attribute
	for _, remoteName := range remoteNames {
		remote, _ := repository.remotes.Get(remoteName)
		roles := make([]string, 0, len(remote.urls))
		for role := range remote.urls {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		roles = moveToFront(roles, RemoteURLRoleFetch)
		for _, role := range roles {
			attributes = append(attributes, Attribute{Key: attributeKey(remoteName, role), Value: remote.urls[role]})
		}
	}
	return attributes
}

// VerifyTrackingLinks checks that every local tracking link is reciprocated
// by its remote-tracking target and vice versa.
func (repository *Repository) VerifyTrackingLinks() error {
	var problems []string
	for branchPair := repository.branches.Oldest(); branchPair != nil; branchPair = branchPair.Next() {
		key, tracking := branchPair.Value.Tracking()
		if !tracking {
			continue
		}
		target := repository.trackingTarget(key)
		if target == nil {
			problems = append(problems, fmt.Sprintf(missingTrackingTargetTemplate, repository.path, branchPair.Key, key.Longname()))
			continue
		}
		if holder, _ := target.TrackedBy(); holder != branchPair.Key {
			problems = append(problems, fmt.Sprintf(unreciprocatedTrackingTemplate, repository.path, branchPair.Key, key.Longname(), holder))
		}
	}
	for remotePair := repository.remotes.Oldest(); remotePair != nil; remotePair = remotePair.Next() {
		for _, target := range remotePair.Value.TrackingBranches() {
			holderName, tracked := target.TrackedBy()
			if !tracked {
				continue
			}
			holder, known := repository.branches.Get(holderName)
			if !known {
				problems = append(problems, fmt.Sprintf(unknownTrackingHolderTemplate, repository.path, target.Longname(), holderName))
				continue
			}
			if key, tracking := holder.Tracking(); !tracking || key != target.trackingKey() {
				problems = append(problems, fmt.Sprintf(mismatchedTrackingHolderTemplate, repository.path, target.Longname(), holderName, key.Longname()))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf(trackingMismatchWrapTemplate, ErrTrackingLinkMismatch, strings.Join(problems, "; "))
	}
	return nil
}

func (repository *Repository) remoteFor(name string) *Remote {
	if remote, found := repository.remotes.Get(name); found {
		return remote
	}
	remote := newRemote(name, false)
	repository.remotes.Set(name, remote)
	return remote
}

func (repository *Repository) trackingTarget(key TrackingKey) *Branch {
	remote, found := repository.remotes.Get(key.RemoteName)
	if !found {
		return nil
	}
	target, found := remote.trackingBranches.Get(key.BranchName)
	if !found {
		return nil
	}
	return target
}

// link makes local track target, detaching whatever either side pointed at before.
func (repository *Repository) link(local *Branch, target *Branch) {
	repository.unlink(local)
	if previousHolderName, tracked := target.TrackedBy(); tracked {
		if previousHolder, known := repository.branches.Get(previousHolderName); known {
			previousHolder.local.tracking = nil
		}
	}
	key := target.trackingKey()
	local.local.tracking = &key
	target.remoteTracking.trackedBy = local.name
}

func (repository *Repository) unlink(local *Branch) {
	key, tracking := local.Tracking()
	if !tracking {
		return
	}
	if target := repository.trackingTarget(key); target != nil {
		if holderName, _ := target.TrackedBy(); holderName == local.name {
			target.remoteTracking.trackedBy = ""
		}
	}
	local.local.tracking = nil
}

func moveToFront(values []string, preferred string) []string {
	reordered := make([]string, 0, len(values))
	found := false
	for _, value := range values {
		if value == preferred {
			found = true
			continue
		}
		reordered = append(reordered, value)
	}
	if !found {
		return reordered
	}
	return append([]string{preferred}, reordered...)
}
