package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/notify"
)

const (
	staleBranchPromptTemplate          = "Stale local tracking branch %s, remove?"
	staleBranchRemovedTemplate         = "Removed stale local tracking branch %s"
	staleBranchCheckedOutTemplate      = "Cannot remove %s: it is checked out and no other branch exists"
	staleBranchRemovalFailedTemplate   = "Failed to remove stale local tracking branch %s"
	trackingConfiguredTemplate         = "Setting local branch %s to track %s"
	trackingBranchCreatedTemplate      = "Setting up local tracking branch %s"
	trackingConfigurationFailedMessage = "Failed to set %s to track %s"
	trackingCreationFailedTemplate     = "Failed to create local tracking branch %s"
)

// CheckForStaleLocalTrackingBranches offers to delete each local branch whose
// upstream no longer exists, asking once per branch. A checked-out branch is
// removed only after another existing branch could be checked out in its place.
func (repository *Repository) CheckForStaleLocalTrackingBranches(executionContext context.Context) {
	repository.logger.Debug("checking for stale local tracking branches")

	for _, localBranch := range repository.LocalBranches() {
		key, tracking := localBranch.Tracking()
		if !tracking {
			continue
		}
		target := repository.trackingTarget(key)
		if target == nil || target.exists {
			continue
		}

		branchLogger := repository.logger.With(zap.String(logFieldBranchConstant, localBranch.name))
		confirmed, promptError := repository.prompter.Confirm(fmt.Sprintf(staleBranchPromptTemplate, localBranch.name))
		if promptError != nil {
			branchLogger.Warn("stale branch prompt failed", zap.Error(promptError))
			continue
		}
		if !confirmed {
			continue
		}

		if !repository.moveAwayFrom(executionContext, localBranch) {
			continue
		}
		if removeError := repository.executor.RemoveLocalBranch(executionContext, repository.path, localBranch.name); removeError != nil {
			branchLogger.Warn("stale branch removal failed", zap.Error(removeError))
			repository.notifier.Complain(fmt.Sprintf(staleBranchRemovalFailedTemplate, localBranch.name), notify.EmphasisMinor)
			continue
		}
		repository.unlink(localBranch)
		repository.branches.Delete(localBranch.name)
		repository.notifier.Inform(fmt.Sprintf(staleBranchRemovedTemplate, localBranch.name), notify.EmphasisMinor)
	}
}

// moveAwayFrom checks out another existing local branch when branch is the
// checked-out one. It reports whether branch can now be removed.
func (repository *Repository) moveAwayFrom(executionContext context.Context, branch *Branch) bool {
	revision, revisionError := repository.executor.CheckedOutRevision(executionContext, repository.path)
	if revisionError != nil || revision != branch.name {
		return true
	}
	for _, candidate := range repository.LocalBranches() {
		if candidate == branch || !candidate.exists {
			continue
		}
		if checkoutError := repository.executor.Checkout(executionContext, repository.path, candidate.name); checkoutError != nil {
			repository.logger.Warn("checkout before stale removal failed", zap.String(logFieldBranchConstant, candidate.name), zap.Error(checkoutError))
			return false
		}
		return true
	}
	repository.notifier.Complain(fmt.Sprintf(staleBranchCheckedOutTemplate, branch.name), notify.EmphasisMinor)
	return false
}

// SetupLocalTrackingBranches makes sure every existing remote-tracking branch
// of the canonical remote is tracked by a local branch of the same name,
// configuring known local branches and creating missing ones.
func (repository *Repository) SetupLocalTrackingBranches(executionContext context.Context) {
	canonicalRemote := repository.CanonicalRemote()
	if canonicalRemote == nil {
		repository.logger.Debug("no remote to track")
		return
	}

	for _, target := range canonicalRemote.TrackingBranches() {
		if _, tracked := target.TrackedBy(); tracked || !target.exists {
			continue
		}
		branchLogger := repository.logger.With(zap.String(logFieldBranchConstant, target.name), zap.String(logFieldRemoteConstant, canonicalRemote.name))

		if localBranch, known := repository.branches.Get(target.name); known {
			repository.notifier.Inform(fmt.Sprintf(trackingConfiguredTemplate, localBranch.name, target.Longname()), notify.EmphasisMinor)
			if configurationError := repository.writeUpstreamPointers(executionContext, localBranch.name, target); configurationError != nil {
				branchLogger.Warn("upstream configuration failed", zap.Error(configurationError))
				repository.notifier.Complain(fmt.Sprintf(trackingConfigurationFailedMessage, localBranch.name, target.Longname()), notify.EmphasisMinor)
				continue
			}
			repository.link(localBranch, target)
			continue
		}

		repository.notifier.Inform(fmt.Sprintf(trackingBranchCreatedTemplate, target.name), notify.EmphasisMinor)
		if creationError := repository.executor.AddTrackingBranch(executionContext, repository.path, target.name, target.Longname()); creationError != nil {
			branchLogger.Warn("tracking branch creation failed", zap.Error(creationError))
			repository.notifier.Complain(fmt.Sprintf(trackingCreationFailedTemplate, target.name), notify.EmphasisMinor)
			continue
		}
		localBranch := newLocalBranch(target.name, true)
		repository.branches.Set(localBranch.name, localBranch)
		repository.link(localBranch, target)
	}
}

func (repository *Repository) writeUpstreamPointers(executionContext context.Context, branchName string, target *Branch) error {
	if setError := repository.executor.SetConfigValue(executionContext, repository.path, branchRemotePointerKey(branchName), target.RemoteName()); setError != nil {
		return setError
	}
	return repository.executor.SetConfigValue(executionContext, repository.path, branchMergePointerKey(branchName), mergePointerValue(target.name))
}
