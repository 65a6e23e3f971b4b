package repository

import (
	"context"

	"go.uber.org/zap"
)

// DetectBranches refreshes the remote-tracking branches and, unless onlyRemote
// is set, the local branches. With updateTracking every local branch has its
// upstream re-read from the checkout configuration.
func (repository *Repository) DetectBranches(executionContext context.Context, onlyRemote bool, updateTracking bool) {
	repository.logger.Debug("detecting branches")
	repository.DetectRemoteTrackingBranches(executionContext)
	if !onlyRemote {
		repository.DetectLocalBranches(executionContext)
	}
	if updateTracking {
		for _, localBranch := range repository.LocalBranches() {
			repository.DetectTracking(executionContext, localBranch)
		}
	}
	repository.detected = true
	repository.logBranches()
}

// DetectRemoteTrackingBranches records every listed remote-tracking branch as
// existing, creating remotes and branches that were not known yet. It returns
// false when the listing failed, in which case nothing changes.
func (repository *Repository) DetectRemoteTrackingBranches(executionContext context.Context) bool {
	longnames, listError := repository.executor.ListRemoteTrackingBranches(executionContext, repository.path)
	if listError != nil {
		repository.logger.Warn("remote-tracking branches unavailable", zap.Error(listError))
		return false
	}
	for _, longname := range longnames {
		nameParts := SplitBranchLongname(longname, remoteTrackingLongnamePartsLimit)
		if len(nameParts) != remoteTrackingLongnamePartsLimit || nameParts[1] == symbolicHeadBranchNameConstant {
			continue
		}
		repository.remoteFor(nameParts[0]).trackingBranchFor(nameParts[1]).exists = true
	}
	return true
}

// DetectLocalBranches marks listed local branches as existing and previously
// known ones that were not listed as missing. It returns false when the listing
// failed, in which case nothing changes.
func (repository *Repository) DetectLocalBranches(executionContext context.Context) bool {
	listings, listError := repository.executor.ListLocalBranches(executionContext, repository.path)
	if listError != nil {
		repository.logger.Warn("local branches unavailable", zap.Error(listError))
		return false
	}
	listed := make(map[string]struct{}, len(listings))
	for _, listing := range listings {
		listed[listing.Name] = struct{}{}
		if localBranch, known := repository.branches.Get(listing.Name); known {
			localBranch.exists = true
			continue
		}
		repository.branches.Set(listing.Name, newLocalBranch(listing.Name, true))
	}
	for branchPair := repository.branches.Oldest(); branchPair != nil; branchPair = branchPair.Next() {
		if _, found := listed[branchPair.Key]; !found {
			branchPair.Value.exists = false
		}
	}
	return true
}

// DetectTracking reads the upstream pointers of localBranch and links it to
// the named remote-tracking branch. Missing pointers, or an upstream in the
// local pseudo-remote, clear any existing link.
func (repository *Repository) DetectTracking(executionContext context.Context, localBranch *Branch) {
	branchLogger := repository.logger.With(zap.String(logFieldBranchConstant, localBranch.name))

	remoteName, remoteFound, remoteError := repository.executor.GetConfigValue(executionContext, repository.path, branchRemotePointerKey(localBranch.name))
	if remoteError != nil {
		branchLogger.Warn("upstream remote unreadable", zap.Error(remoteError))
		return
	}
	mergePointer, mergeFound, mergeError := repository.executor.GetConfigValue(executionContext, repository.path, branchMergePointerKey(localBranch.name))
	if mergeError != nil {
		branchLogger.Warn("upstream branch unreadable", zap.Error(mergeError))
		return
	}

	upstreamName, upstreamIsBranch := mergePointerBranchName(mergePointer)
	if !remoteFound || !mergeFound || !upstreamIsBranch || remoteName == localPseudoRemoteNameConstant {
		repository.unlink(localBranch)
		return
	}

	target := repository.remoteFor(remoteName).trackingBranchFor(upstreamName)
	repository.link(localBranch, target)
	branchLogger.Debug("detected tracking branch", zap.String(logFieldRemoteConstant, remoteName), zap.String("upstream", upstreamName))
}

// DetectRemoteBranches records the branches each remote advertises.
// Advertised branches that disappeared are marked missing.
func (repository *Repository) DetectRemoteBranches(executionContext context.Context) {
	for _, remote := range repository.Remotes() {
		advertised, listError := repository.executor.ListRemoteBranches(executionContext, repository.path, remote.name)
		if listError != nil {
			repository.logger.Warn("advertised branches unavailable", zap.String(logFieldRemoteConstant, remote.name), zap.Error(listError))
			continue
		}
		listed := make(map[string]struct{}, len(advertised))
		for _, branchName := range advertised {
			listed[branchName] = struct{}{}
			remote.remoteBranchFor(branchName).exists = true
		}
		markUnlisted(remote.RemoteBranches(), listed, func(branch *Branch) string { return branch.name })
	}
}

// CheckHeartbeats re-verifies the presence of every known branch with one
// listing per namespace. It never creates branches. A failed listing leaves
// that namespace untouched.
func (repository *Repository) CheckHeartbeats(executionContext context.Context) {
	if listings, listError := repository.executor.ListLocalBranches(executionContext, repository.path); listError != nil {
		repository.logger.Warn("local heartbeat skipped", zap.Error(listError))
	} else {
		listed := make(map[string]struct{}, len(listings))
		for _, listing := range listings {
			listed[listing.Name] = struct{}{}
		}
		markAll(repository.LocalBranches(), listed, func(branch *Branch) string { return branch.name })
	}

	if longnames, listError := repository.executor.ListRemoteTrackingBranches(executionContext, repository.path); listError != nil {
		repository.logger.Warn("remote-tracking heartbeat skipped", zap.Error(listError))
	} else {
		listed := make(map[string]struct{}, len(longnames))
		for _, longname := range longnames {
			listed[longname] = struct{}{}
		}
		for _, remote := range repository.Remotes() {
			markAll(remote.TrackingBranches(), listed, (*Branch).Longname)
		}
	}

	for _, remote := range repository.Remotes() {
		if remote.remoteBranches.Len() == 0 {
			continue
		}
		advertised, listError := repository.executor.ListRemoteBranches(executionContext, repository.path, remote.name)
		if listError != nil {
			repository.logger.Warn("remote heartbeat skipped", zap.String(logFieldRemoteConstant, remote.name), zap.Error(listError))
			continue
		}
		listed := make(map[string]struct{}, len(advertised))
		for _, branchName := range advertised {
			listed[branchName] = struct{}{}
		}
		markAll(remote.RemoteBranches(), listed, func(branch *Branch) string { return branch.name })
	}
	repository.logBranches()
}

func markAll(branches []*Branch, listed map[string]struct{}, identity func(*Branch) string) {
	for _, branch := range branches {
		_, found := listed[identity(branch)]
		branch.exists = found
	}
}

func markUnlisted(branches []*Branch, listed map[string]struct{}, identity func(*Branch) string) {
	for _, branch := range branches {
		if _, found := listed[identity(branch)]; !found {
			branch.exists = false
		}
	}
}

func (repository *Repository) logBranches() {
	if !repository.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, branch := range repository.AllBranches() {
		branchFields := []zap.Field{
			zap.String(logFieldRemoteConstant, branch.RemoteName()),
			zap.String(logFieldBranchConstant, branch.name),
			zap.Stringer("kind", branch.kind),
			zap.Bool("exists", branch.exists),
		}
		if key, tracking := branch.Tracking(); tracking {
			branchFields = append(branchFields, zap.String("tracking", key.Longname()))
		}
		repository.logger.Debug("branch", branchFields...)
	}
	if verifyError := repository.VerifyTrackingLinks(); verifyError != nil {
		repository.logger.Debug("tracking links disagree", zap.Error(verifyError))
	}
}
