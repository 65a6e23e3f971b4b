package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/gitcli"
	"github.com/temirov/reps/internal/notify"
)

const executorNotConfiguredMessageConstant = "repository executor not configured"

// ErrExecutorNotConfigured indicates a Repository was constructed without an Executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// Executor runs the git operations the synchronization engine depends on.
type Executor interface {
	InitRepository(executionContext context.Context, repositoryPath string) error
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, prune bool) error
	ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error)
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	GetConfigValue(executionContext context.Context, repositoryPath string, key string) (string, bool, error)
	SetConfigValue(executionContext context.Context, repositoryPath string, key string, value string) error
	ListLocalBranches(executionContext context.Context, repositoryPath string) ([]gitcli.LocalBranchListing, error)
	ListRemoteTrackingBranches(executionContext context.Context, repositoryPath string) ([]string, error)
	ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error)
	CheckedOutRevision(executionContext context.Context, repositoryPath string) (string, error)
	WorktreeClean(executionContext context.Context, repositoryPath string) (bool, error)
	AddTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, upstreamName string) error
	RemoveLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Checkout(executionContext context.Context, repositoryPath string, revision string) error
	Stash(executionContext context.Context, repositoryPath string) error
	ApplyStash(executionContext context.Context, repositoryPath string) error
	Merge(executionContext context.Context, repositoryPath string, revision string) (gitcli.MergeResult, error)
	ResetHard(executionContext context.Context, repositoryPath string, revision string) error
	ListCommits(executionContext context.Context, repositoryPath string, revision string) ([]string, error)
	CountObjects(executionContext context.Context, repositoryPath string) (gitcli.ObjectCounts, error)
	GarbageCollect(executionContext context.Context, repositoryPath string) error
}

// Notifier receives user-facing progress messages.
type Notifier interface {
	Inform(message string, emphasis notify.Emphasis)
	Suggest(message string, emphasis notify.Emphasis)
	Complain(message string, emphasis notify.Emphasis)
	Output(text string)
}

// Prompter asks the user for a yes/no decision.
type Prompter interface {
	Confirm(prompt string) (bool, error)
}

// Collaborators bundles the services a Repository uses. Only Executor is required.
type Collaborators struct {
	Executor Executor
	Notifier Notifier
	Prompter Prompter
	Logger   *zap.Logger
}

func (collaborators Collaborators) normalized() (Collaborators, error) {
	if collaborators.Executor == nil {
		return Collaborators{}, ErrExecutorNotConfigured
	}
	if collaborators.Notifier == nil {
		collaborators.Notifier = silentNotifier{}
	}
	if collaborators.Prompter == nil {
		collaborators.Prompter = decliningPrompter{}
	}
	if collaborators.Logger == nil {
		collaborators.Logger = zap.NewNop()
	}
	return collaborators, nil
}

type silentNotifier struct{}

func (silentNotifier) Inform(string, notify.Emphasis)   {}
func (silentNotifier) Suggest(string, notify.Emphasis)  {}
func (silentNotifier) Complain(string, notify.Emphasis) {}
func (silentNotifier) Output(string)                    {}

type decliningPrompter struct{}

func (decliningPrompter) Confirm(string) (bool, error) { return false, nil }
