package repository_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
)

var errFakeGitFailure = errors.New("fake git failure")

// fakeGit is an in-memory stand-in for a checkout. Every call is recorded as
// "<operation> <arguments>" and fails once the context is done.
type fakeGit struct {
	mutex sync.Mutex

	localBranches  []string
	checkedOut     string
	remoteTracking []string
	advertised     map[string][]string
	remotes        []string
	config         map[string]string
	commits        map[string][]string
	clean          bool
	objectCounts   []gitcli.ObjectCounts

	failListLocal    bool
	failListTracking bool
	failCheckedOut   bool
	unbornHead       bool
	failStatus       bool
	failStash        bool
	failApplyStash   bool
	failMerge        map[string]bool
	failFetch        map[string]bool
	mergeOutput      map[string]string

	calls []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		advertised:  map[string][]string{},
		config:      map[string]string{},
		commits:     map[string][]string{},
		clean:       true,
		failMerge:   map[string]bool{},
		failFetch:   map[string]bool{},
		mergeOutput: map[string]string{},
	}
}

func (git *fakeGit) record(executionContext context.Context, operation string, arguments ...string) error {
	git.calls = append(git.calls, strings.TrimSpace(operation+" "+strings.Join(arguments, " ")))
	return executionContext.Err()
}

func (git *fakeGit) recordedCalls(prefix string) []string {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	var matching []string
	for _, call := range git.calls {
		if strings.HasPrefix(call, prefix) {
			matching = append(matching, call)
		}
	}
	return matching
}

func (git *fakeGit) track(localBranch string, remoteName string, upstream string) {
	git.config[fmt.Sprintf("branch.%s.remote", localBranch)] = remoteName
	git.config[fmt.Sprintf("branch.%s.merge", localBranch)] = "refs/heads/" + upstream
}

func (git *fakeGit) InitRepository(executionContext context.Context, repositoryPath string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	return git.record(executionContext, "init", repositoryPath)
}

func (git *fakeGit) Fetch(executionContext context.Context, _ string, remoteName string, prune bool) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "fetch", remoteName, fmt.Sprint(prune)); recordError != nil {
		return recordError
	}
	if git.failFetch[remoteName] {
		return errFakeGitFailure
	}
	return nil
}

func (git *fakeGit) ListRemotes(executionContext context.Context, _ string) ([]string, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "remote"); recordError != nil {
		return nil, recordError
	}
	return slices.Clone(git.remotes), nil
}

func (git *fakeGit) AddRemote(executionContext context.Context, _ string, remoteName string, remoteURL string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "remote add", remoteName, remoteURL); recordError != nil {
		return recordError
	}
	git.remotes = append(git.remotes, remoteName)
	git.config["remote."+remoteName+".url"] = remoteURL
	return nil
}

func (git *fakeGit) RemoveRemote(executionContext context.Context, _ string, remoteName string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "remote remove", remoteName); recordError != nil {
		return recordError
	}
	git.remotes = slices.DeleteFunc(git.remotes, func(name string) bool { return name == remoteName })
	return nil
}

func (git *fakeGit) GetConfigValue(executionContext context.Context, _ string, key string) (string, bool, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "config --get", key); recordError != nil {
		return "", false, recordError
	}
	value, found := git.config[key]
	return value, found, nil
}

func (git *fakeGit) SetConfigValue(executionContext context.Context, _ string, key string, value string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "config", key, value); recordError != nil {
		return recordError
	}
	git.config[key] = value
	return nil
}

func (git *fakeGit) ListLocalBranches(executionContext context.Context, _ string) ([]gitcli.LocalBranchListing, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "for-each-ref refs/heads"); recordError != nil {
		return nil, recordError
	}
	if git.failListLocal {
		return nil, errFakeGitFailure
	}
	listings := make([]gitcli.LocalBranchListing, 0, len(git.localBranches))
	for _, branchName := range git.localBranches {
		listings = append(listings, gitcli.LocalBranchListing{Name: branchName, CheckedOut: branchName == git.checkedOut})
	}
	return listings, nil
}

func (git *fakeGit) ListRemoteTrackingBranches(executionContext context.Context, _ string) ([]string, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "for-each-ref refs/remotes"); recordError != nil {
		return nil, recordError
	}
	if git.failListTracking {
		return nil, errFakeGitFailure
	}
	return slices.Clone(git.remoteTracking), nil
}

func (git *fakeGit) ListRemoteBranches(executionContext context.Context, _ string, remoteName string) ([]string, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "ls-remote", remoteName); recordError != nil {
		return nil, recordError
	}
	return slices.Clone(git.advertised[remoteName]), nil
}

func (git *fakeGit) CheckedOutRevision(executionContext context.Context, _ string) (string, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "rev-parse HEAD"); recordError != nil {
		return "", recordError
	}
	if git.failCheckedOut {
		return "", errFakeGitFailure
	}
	if git.unbornHead {
		return "", fmt.Errorf("%w: %s", gitcli.ErrUnbornHead, git.checkedOut)
	}
	return git.checkedOut, nil
}

func (git *fakeGit) WorktreeClean(executionContext context.Context, _ string) (bool, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "status"); recordError != nil {
		return false, recordError
	}
	if git.failStatus {
		return false, errFakeGitFailure
	}
	return git.clean, nil
}

func (git *fakeGit) AddTrackingBranch(executionContext context.Context, _ string, branchName string, upstreamName string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "branch --track", branchName, upstreamName); recordError != nil {
		return recordError
	}
	git.localBranches = append(git.localBranches, branchName)
	remoteName, upstream, _ := strings.Cut(upstreamName, "/")
	git.track(branchName, remoteName, upstream)
	return nil
}

func (git *fakeGit) RemoveLocalBranch(executionContext context.Context, _ string, branchName string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "branch -D", branchName); recordError != nil {
		return recordError
	}
	if branchName == git.checkedOut {
		return errFakeGitFailure
	}
	git.localBranches = slices.DeleteFunc(git.localBranches, func(name string) bool { return name == branchName })
	return nil
}

func (git *fakeGit) Checkout(executionContext context.Context, _ string, revision string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "checkout", revision); recordError != nil {
		return recordError
	}
	git.checkedOut = revision
	return nil
}

func (git *fakeGit) Stash(executionContext context.Context, _ string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "stash"); recordError != nil {
		return recordError
	}
	if git.failStash {
		return errFakeGitFailure
	}
	git.clean = true
	return nil
}

func (git *fakeGit) ApplyStash(executionContext context.Context, _ string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "stash apply"); recordError != nil {
		return recordError
	}
	if git.failApplyStash {
		return errFakeGitFailure
	}
	git.clean = false
	return nil
}

func (git *fakeGit) Merge(executionContext context.Context, _ string, revision string) (gitcli.MergeResult, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "merge", revision); recordError != nil {
		return gitcli.MergeResult{}, recordError
	}
	if git.failMerge[revision] {
		return gitcli.MergeResult{}, errFakeGitFailure
	}
	output, changed := git.mergeOutput[revision]
	return gitcli.MergeResult{Changed: changed, Output: output}, nil
}

func (git *fakeGit) ResetHard(executionContext context.Context, _ string, revision string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	return git.record(executionContext, "reset --hard", revision)
}

func (git *fakeGit) ListCommits(executionContext context.Context, _ string, revision string) ([]string, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "rev-list", revision); recordError != nil {
		return nil, recordError
	}
	history, known := git.commits[revision]
	if !known {
		return nil, errFakeGitFailure
	}
	return slices.Clone(history), nil
}

func (git *fakeGit) CountObjects(executionContext context.Context, _ string) (gitcli.ObjectCounts, error) {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	if recordError := git.record(executionContext, "count-objects"); recordError != nil {
		return gitcli.ObjectCounts{}, recordError
	}
	if len(git.objectCounts) == 0 {
		return gitcli.ObjectCounts{}, errFakeGitFailure
	}
	counts := git.objectCounts[0]
	if len(git.objectCounts) > 1 {
		git.objectCounts = git.objectCounts[1:]
	}
	return counts, nil
}

func (git *fakeGit) GarbageCollect(executionContext context.Context, _ string) error {
	git.mutex.Lock()
	defer git.mutex.Unlock()
	return git.record(executionContext, "gc")
}

type recordedMessage struct {
	kind     string
	message  string
	emphasis notify.Emphasis
}

type recordingNotifier struct {
	mutex    sync.Mutex
	messages []recordedMessage
}

func (notifier *recordingNotifier) add(kind string, message string, emphasis notify.Emphasis) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.messages = append(notifier.messages, recordedMessage{kind: kind, message: message, emphasis: emphasis})
}

func (notifier *recordingNotifier) Inform(message string, emphasis notify.Emphasis) {
	notifier.add("inform", message, emphasis)
}

func (notifier *recordingNotifier) Suggest(message string, emphasis notify.Emphasis) {
	notifier.add("suggest", message, emphasis)
}

func (notifier *recordingNotifier) Complain(message string, emphasis notify.Emphasis) {
	notifier.add("complain", message, emphasis)
}

func (notifier *recordingNotifier) Output(text string) {
	notifier.add("output", text, notify.EmphasisNormal)
}

func (notifier *recordingNotifier) messagesOfKind(kind string) []string {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	var matching []string
	for _, message := range notifier.messages {
		if message.kind == kind {
			matching = append(matching, message.message)
		}
	}
	return matching
}

type countingPrompter struct {
	answer  bool
	prompts []string
}

func (prompter *countingPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	return prompter.answer, nil
}
