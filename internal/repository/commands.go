package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
)

const (
	fetchingTemplateConstant          = "Fetching %s"
	mergingTemplateConstant           = "Merging %s"
	compactCheckTemplateConstant      = "Checking for compactness: %s"
	compactAttemptMessageConstant     = "Trying to compact"
	initializingTemplateConstant      = "Initializing %s"
	fetchFailedComplaintTemplate      = "Failed fetching %s"
	remoteFetchFailedTemplate         = "Failed fetching %s from %s"
	remoteWithoutURLTemplate          = "Remote %s of %s has no url"
	fetchErrorTemplateConstant        = "fetch %s failed for remotes: %s"
	initializeErrorTemplateConstant   = "initialize %s: %w"
	inspectPathErrorTemplateConstant  = "inspect %s: %w"
	countObjectsErrorTemplateConstant = "count objects in %s: %w"
	collectGarbageErrorTemplate       = "compact %s: %w"
	remoteNameListSeparatorConstant   = ", "
)

// FetchError reports the remotes a repository could not be fetched from.
type FetchError struct {
	RepositoryPath string
	FailedRemotes  []string
}

// Error lists the failed remotes.
func (fetchError FetchError) Error() string {
	return fmt.Sprintf(fetchErrorTemplateConstant, fetchError.RepositoryPath, strings.Join(fetchError.FailedRemotes, remoteNameListSeparatorConstant))
}

// CmdFetch brings the checkout in line with the modeled remotes and fetches
// every remote with pruning. A missing checkout is initialized first. Every
// remote is attempted; the result fails when any of them failed.
func (repository *Repository) CmdFetch(executionContext context.Context) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	commandContext := context.WithoutCancel(executionContext)
	repository.notifier.Inform(fmt.Sprintf(fetchingTemplateConstant, repository.path), notify.EmphasisMajor)

	if _, statError := os.Stat(repository.path); statError != nil {
		if !errors.Is(statError, fs.ErrNotExist) {
			return fmt.Errorf(inspectPathErrorTemplateConstant, repository.path, statError)
		}
		repository.notifier.Inform(fmt.Sprintf(initializingTemplateConstant, repository.path), notify.EmphasisMinor)
		if initError := repository.executor.InitRepository(commandContext, repository.path); initError != nil {
			return fmt.Errorf(initializeErrorTemplateConstant, repository.path, initError)
		}
	}

	repository.reconcileRemotes(commandContext)
	repository.DetectBranches(commandContext, false, true)

	var failedRemotes []string
	for _, remote := range repository.Remotes() {
		if fetchError := repository.executor.Fetch(commandContext, repository.path, remote.name, true); fetchError != nil {
			repository.logger.Warn("fetch failed", zap.String(logFieldRemoteConstant, remote.name), zap.Error(fetchError))
			repository.notifier.Complain(fmt.Sprintf(remoteFetchFailedTemplate, repository.path, remote.name), notify.EmphasisMinor)
			failedRemotes = append(failedRemotes, remote.name)
		}
	}
	repository.DetectBranches(commandContext, true, false)

	if len(failedRemotes) > 0 {
		repository.notifier.Complain(fmt.Sprintf(fetchFailedComplaintTemplate, repository.path), notify.EmphasisNormal)
		return FetchError{RepositoryPath: repository.path, FailedRemotes: failedRemotes}
	}
	return nil
}

// CmdMerge runs heartbeat, stale cleanup, tracking setup and the merge
// protocol in that order. Branches are detected first when this Repository has
// not been detected yet.
func (repository *Repository) CmdMerge(executionContext context.Context) (MergeReport, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	commandContext := context.WithoutCancel(executionContext)
	repository.notifier.Inform(fmt.Sprintf(mergingTemplateConstant, repository.path), notify.EmphasisMajor)

	if !repository.detected {
		repository.DetectBranches(commandContext, false, true)
	}
	repository.CheckHeartbeats(commandContext)
	repository.CheckForStaleLocalTrackingBranches(commandContext)
	repository.SetupLocalTrackingBranches(commandContext)
	return repository.MergeLocalTrackingBranches(commandContext)
}

// CmdCompact reports loose objects and, unless checkOnly is set, packs them.
// The returned counts reflect the final state.
func (repository *Repository) CmdCompact(executionContext context.Context, checkOnly bool) (gitcli.ObjectCounts, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	repository.notifier.Inform(fmt.Sprintf(compactCheckTemplateConstant, repository.path), notify.EmphasisMajor)
	counts, countError := repository.executor.CountObjects(executionContext, repository.path)
	if countError != nil {
		return gitcli.ObjectCounts{}, fmt.Errorf(countObjectsErrorTemplateConstant, repository.path, countError)
	}
	if counts.Compact() {
		return counts, nil
	}
	repository.notifier.Output(counts.Summary)
	if checkOnly {
		return counts, nil
	}

	repository.notifier.Inform(compactAttemptMessageConstant, notify.EmphasisMinor)
	if collectError := repository.executor.GarbageCollect(executionContext, repository.path); collectError != nil {
		return counts, fmt.Errorf(collectGarbageErrorTemplate, repository.path, collectError)
	}
	compactedCounts, recountError := repository.executor.CountObjects(executionContext, repository.path)
	if recountError != nil {
		return counts, fmt.Errorf(countObjectsErrorTemplateConstant, repository.path, recountError)
	}
	repository.notifier.Output(compactedCounts.Summary)
	return compactedCounts, nil
}

// reconcileRemotes removes checkout remotes unknown to the model, adds
// missing ones and overwrites every modeled URL.
func (repository *Repository) reconcileRemotes(executionContext context.Context) {
	checkoutRemotes, listError := repository.executor.ListRemotes(executionContext, repository.path)
	if listError != nil {
		repository.logger.Warn("remote listing failed; reconciliation skipped", zap.Error(listError))
		return
	}
	checkoutRemoteSet := make(map[string]struct{}, len(checkoutRemotes))
	for _, remoteName := range checkoutRemotes {
		checkoutRemoteSet[remoteName] = struct{}{}
		if _, modeled := repository.remotes.Get(remoteName); modeled {
			continue
		}
		if removeError := repository.executor.RemoveRemote(executionContext, repository.path, remoteName); removeError != nil {
			repository.logger.Warn("remote removal failed", zap.String(logFieldRemoteConstant, remoteName), zap.Error(removeError))
		}
	}

	for _, remote := range repository.Remotes() {
		if _, present := checkoutRemoteSet[remote.name]; !present {
			fetchURL, hasURL := remote.URL(RemoteURLRoleFetch)
			if !hasURL {
				repository.notifier.Complain(fmt.Sprintf(remoteWithoutURLTemplate, remote.name, repository.path), notify.EmphasisMinor)
				continue
			}
			if addError := repository.executor.AddRemote(executionContext, repository.path, remote.name, fetchURL); addError != nil {
				repository.logger.Warn("remote addition failed", zap.String(logFieldRemoteConstant, remote.name), zap.Error(addError))
				continue
			}
		}
		for role, value := range remote.URLs() {
			if setError := repository.executor.SetConfigValue(executionContext, repository.path, remoteConfigurationKey(remote.name, role), value); setError != nil {
				repository.logger.Warn("remote url update failed", zap.String(logFieldRemoteConstant, remote.name), zap.String(logFieldKeyConstant, role), zap.Error(setError))
			}
		}
	}
}
