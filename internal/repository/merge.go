package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
)

const (
	anchorUnknownMessageConstant         = "checked-out revision unknown"
	worktreeStatusUnknownMessageConstant = "worktree status unknown"
	preconditionErrorTemplateConstant    = "%w: %s: %v"
	anchorUnknownComplaintTemplate       = "Failed to get the checked-out revision of %s"
	worktreeStatusComplaintTemplate      = "Failed to query the worktree status of %s"
	stashedTemplate                      = "Repository is dirty, stashed at %s"
	stashFailedTemplate                  = "Stashing failed at %s, merging without a safety net"
	pushableTemplate                     = "Branch %s is ahead of %s, is pushable"
	mergedTemplate                       = "Merged %s on %s"
	mergeFailedTemplate                  = "Merge failed at %s of %s"
	anchorRestoreFailedTemplate          = "Failed to check out %s again"
	stashKeptTemplate                    = "Stash kept: %s could not be checked out again"
	stashRestoredTemplate                = "Restored stash at %s"
	stashConflictTemplate                = "Restoring the stash at %s failed; resolve it manually"
	unbornAnchorTemplate                 = "Nothing committed is checked out at %s, nothing to restore"
)

// ErrAnchorUnknown indicates the checked-out revision could not be recorded before merging.
var ErrAnchorUnknown = errors.New(anchorUnknownMessageConstant)

// ErrWorktreeStatusUnknown indicates the worktree cleanliness could not be determined.
var ErrWorktreeStatusUnknown = errors.New(worktreeStatusUnknownMessageConstant)

// CommitLister lists the commits reachable from a revision, newest first.
type CommitLister interface {
	ListCommits(executionContext context.Context, repositoryPath string, revision string) ([]string, error)
}

// CommitIsAheadOf reports whether the newest commit of second appears in the
// history of first, excluding first's own newest commit. Identical revisions,
// empty histories and listing failures all yield false.
func CommitIsAheadOf(executionContext context.Context, lister CommitLister, repositoryPath string, first string, second string) bool {
	if first == second {
		return false
	}
	firstHistory, firstError := lister.ListCommits(executionContext, repositoryPath, first)
	if firstError != nil || len(firstHistory) == 0 {
		return false
	}
	secondHistory, secondError := lister.ListCommits(executionContext, repositoryPath, second)
	if secondError != nil || len(secondHistory) == 0 {
		return false
	}
	return slices.Contains(firstHistory[1:], secondHistory[0])
}

// MergeReport summarizes one run of the merge protocol.
type MergeReport struct {
	Anchor string
	// Unborn marks a checkout whose branch had no commits; such a run neither
	// stashes nor checks the anchor out again and counts it as restored.
	Unborn         bool
	Stashed        bool
	StashFailed    bool
	Merged         []string
	UpToDate       []string
	Pushable       []string
	Failed         []string
	AnchorRestored bool
	StashRestored  bool
	StashConflict  bool
}

// HasProblems reports whether any branch failed or the worktree could not be fully restored.
func (report MergeReport) HasProblems() bool {
	return len(report.Failed) > 0 || !report.AnchorRestored || report.StashConflict
}

// MergeLocalTrackingBranches merges every tracked upstream into its local
// branch. Uncommitted work is stashed first, a failed merge is hard-reset, and
// the originally checked-out revision is restored before the stash is
// re-applied. Once started the protocol ignores cancellation of executionContext.
func (repository *Repository) MergeLocalTrackingBranches(executionContext context.Context) (MergeReport, error) {
	protocolContext := context.WithoutCancel(executionContext)
	repository.logger.Debug("merging local tracking branches")

	anchor, anchorError := repository.executor.CheckedOutRevision(protocolContext, repository.path)
	if errors.Is(anchorError, gitcli.ErrUnbornHead) {
		repository.notifier.Inform(fmt.Sprintf(unbornAnchorTemplate, repository.path), notify.EmphasisMinor)
		report := MergeReport{Unborn: true, AnchorRestored: true}
		repository.mergeTrackedBranches(protocolContext, &report)
		return report, nil
	}
	if anchorError != nil || len(anchor) == 0 {
		repository.notifier.Complain(fmt.Sprintf(anchorUnknownComplaintTemplate, repository.path), notify.EmphasisNormal)
		return MergeReport{}, fmt.Errorf(preconditionErrorTemplateConstant, ErrAnchorUnknown, repository.path, anchorError)
	}
	report := MergeReport{Anchor: anchor}

	clean, statusError := repository.executor.WorktreeClean(protocolContext, repository.path)
	if statusError != nil {
		repository.notifier.Complain(fmt.Sprintf(worktreeStatusComplaintTemplate, repository.path), notify.EmphasisNormal)
		return report, fmt.Errorf(preconditionErrorTemplateConstant, ErrWorktreeStatusUnknown, repository.path, statusError)
	}
	if !clean {
		// A freshly initialized checkout reports its empty worktree as dirty until the branch is checked out.
		if _, known := repository.branches.Get(anchor); known {
			if checkoutError := repository.executor.Checkout(protocolContext, repository.path, anchor); checkoutError != nil {
				repository.logger.Warn("anchor checkout failed", zap.String(logFieldBranchConstant, anchor), zap.Error(checkoutError))
			}
			clean, statusError = repository.executor.WorktreeClean(protocolContext, repository.path)
			if statusError != nil {
				repository.notifier.Complain(fmt.Sprintf(worktreeStatusComplaintTemplate, repository.path), notify.EmphasisNormal)
				return report, fmt.Errorf(preconditionErrorTemplateConstant, ErrWorktreeStatusUnknown, repository.path, statusError)
			}
		}
	}
	if !clean {
		if stashError := repository.executor.Stash(protocolContext, repository.path); stashError != nil {
			repository.logger.Warn("stash failed", zap.Error(stashError))
			repository.notifier.Complain(fmt.Sprintf(stashFailedTemplate, anchor), notify.EmphasisMinor)
			report.StashFailed = true
		} else {
			repository.notifier.Inform(fmt.Sprintf(stashedTemplate, anchor), notify.EmphasisMinor)
			report.Stashed = true
		}
	}

	repository.mergeTrackedBranches(protocolContext, &report)

	if checkoutError := repository.executor.Checkout(protocolContext, repository.path, anchor); checkoutError != nil {
		repository.logger.Warn("anchor restore failed", zap.String(logFieldBranchConstant, anchor), zap.Error(checkoutError))
		repository.notifier.Complain(fmt.Sprintf(anchorRestoreFailedTemplate, anchor), notify.EmphasisMinor)
	} else {
		report.AnchorRestored = true
	}

	if !report.Stashed {
		return report, nil
	}
	if !report.AnchorRestored {
		repository.notifier.Complain(fmt.Sprintf(stashKeptTemplate, anchor), notify.EmphasisMinor)
		return report, nil
	}
	if applyError := repository.executor.ApplyStash(protocolContext, repository.path); applyError != nil {
		repository.logger.Warn("stash apply failed", zap.Error(applyError))
		repository.notifier.Complain(fmt.Sprintf(stashConflictTemplate, anchor), notify.EmphasisMinor)
		report.StashConflict = true
		return report, nil
	}
	repository.notifier.Inform(fmt.Sprintf(stashRestoredTemplate, anchor), notify.EmphasisMinor)
	report.StashRestored = true
	return report, nil
}

// mergeTrackedBranches skips local branches whose upstream is unknown or was not seen on the last fetch.
func (repository *Repository) mergeTrackedBranches(executionContext context.Context, report *MergeReport) {
	for _, localBranch := range repository.LocalBranches() {
		key, tracking := localBranch.Tracking()
		if !tracking {
			continue
		}
		target := repository.trackingTarget(key)
		if target == nil || !target.exists {
			continue
		}
		repository.mergeBranch(executionContext, localBranch, target, report)
	}
}

func (repository *Repository) mergeBranch(executionContext context.Context, localBranch *Branch, target *Branch, report *MergeReport) {
	upstream := target.Longname()
	branchLogger := repository.logger.With(zap.String(logFieldBranchConstant, localBranch.name), zap.String("upstream", upstream))

	if CommitIsAheadOf(executionContext, repository.executor, repository.path, localBranch.name, upstream) {
		repository.notifier.Suggest(fmt.Sprintf(pushableTemplate, localBranch.name, upstream), notify.EmphasisMinor)
		report.Pushable = append(report.Pushable, localBranch.name)
		return
	}

	if checkoutError := repository.executor.Checkout(executionContext, repository.path, localBranch.name); checkoutError != nil {
		branchLogger.Warn("checkout before merge failed", zap.Error(checkoutError))
		repository.notifier.Complain(fmt.Sprintf(mergeFailedTemplate, localBranch.name, upstream), notify.EmphasisMinor)
		report.Failed = append(report.Failed, localBranch.name)
		return
	}

	mergeResult, mergeError := repository.executor.Merge(executionContext, repository.path, upstream)
	if mergeError != nil {
		branchLogger.Warn("merge failed", zap.Error(mergeError))
		if resetError := repository.executor.ResetHard(executionContext, repository.path, localBranch.name); resetError != nil {
			branchLogger.Error("reset after failed merge failed", zap.Error(resetError))
		}
		repository.notifier.Complain(fmt.Sprintf(mergeFailedTemplate, localBranch.name, upstream), notify.EmphasisMinor)
		report.Failed = append(report.Failed, localBranch.name)
		return
	}

	if !mergeResult.Changed {
		report.UpToDate = append(report.UpToDate, localBranch.name)
		return
	}
	repository.notifier.Inform(fmt.Sprintf(mergedTemplate, upstream, localBranch.name), notify.EmphasisMinor)
	repository.notifier.Output(mergeResult.Output)
	report.Merged = append(report.Merged, localBranch.name)
}
