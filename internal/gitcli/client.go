package gitcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/reps/internal/execshell"
)

const (
	gitInitSubcommandConstant         = "init"
	gitFetchSubcommandConstant        = "fetch"
	gitCloneSubcommandConstant        = "clone"
	gitOriginFlagConstant             = "--origin"
	gitPruneFlagConstant              = "--prune"
	gitRemoteSubcommandConstant       = "remote"
	gitRemoteAddSubcommandConstant    = "add"
	gitRemoteRemoveSubcommandConstant = "remove"
	gitConfigSubcommandConstant       = "config"
	gitConfigGetFlagConstant          = "--get"
	gitForEachRefSubcommandConstant   = "for-each-ref"
	gitLocalBranchFormatConstant      = "--format=%(HEAD)\t%(refname)"
	gitRemoteBranchFormatConstant     = "--format=%(refname)"
	gitLocalBranchNamespaceConstant   = "refs/heads"
	gitRemoteBranchNamespaceConstant  = "refs/remotes"
	gitSymbolicRefSubcommandConstant  = "symbolic-ref"
	gitQuietFlagConstant              = "--quiet"
	gitHeadReferenceConstant          = "HEAD"
	gitRevParseSubcommandConstant     = "rev-parse"
	gitVerifyFlagConstant             = "--verify"
	gitStatusSubcommandConstant       = "status"
	gitPorcelainFlagConstant          = "--porcelain"
	gitLsRemoteSubcommandConstant     = "ls-remote"
	gitHeadsFlagConstant              = "--heads"
	gitBranchSubcommandConstant       = "branch"
	gitTrackFlagConstant              = "--track"
	gitForceDeleteFlagConstant        = "-D"
	gitCheckoutSubcommandConstant     = "checkout"
	gitStashSubcommandConstant        = "stash"
	gitStashApplySubcommandConstant   = "apply"
	gitMergeSubcommandConstant        = "merge"
	gitNoEditFlagConstant             = "--no-edit"
	gitResetSubcommandConstant        = "reset"
	gitHardFlagConstant               = "--hard"
	gitRevListSubcommandConstant      = "rev-list"
	gitPathSeparatorArgumentConstant  = "--"
	gitCountObjectsSubcommandConstant = "count-objects"
	gitGarbageCollectSubcommand       = "gc"
	gitTerminalPromptEnvironmentKey   = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValue    = "0"
	untrackedStatusPrefixConstant     = "??"
	checkedOutMarkerConstant          = "*"
	fieldSeparatorConstant            = "\t"
	lineSeparatorConstant             = "\n"
	alreadyUpToDateMarkerConstant     = "Already up to date"
	alreadyUpToDateLegacyMarker       = "Already up-to-date"
	countObjectsFormatConstant        = "%d objects, %d kilobytes"
	repositoryDirectoryPermissions    = 0o755
	gitQueryNoMatchExitCode           = 1
	executorNotConfiguredMessage      = "git executor not configured"
	createRepositoryDirectoryTemplate = "create repository directory %s: %w"
	repositoryAlreadyExistsTemplate   = "clone destination %s already exists"
	parseObjectCountsErrorTemplate    = "parse object counts %q: %w"
	unexpectedRevisionOutputTemplate  = "unexpected revision output for %s"
	unbornHeadTemplate                = "%w: %s"
	unbornHeadMessage                 = "checked-out branch has no commits yet"
)

// ErrGitExecutorNotConfigured indicates the client was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessage)

// ErrUnbornHead indicates HEAD names a branch that has no commits yet.
var ErrUnbornHead = errors.New(unbornHeadMessage)

// GitExecutor runs git with the provided details.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client issues git subcommands against repositories on disk.
type Client struct {
	executor    GitExecutor
	networkPool *Pool
}

// NewClient constructs a Client. A nil pool leaves network operations unbounded.
func NewClient(executor GitExecutor, networkPool *Pool) (*Client, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Client{executor: executor, networkPool: networkPool}, nil
}

// InitRepository creates the directory when needed and runs git init inside it.
func (client *Client) InitRepository(executionContext context.Context, repositoryPath string) error {
	if mkdirError := os.MkdirAll(repositoryPath, repositoryDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(createRepositoryDirectoryTemplate, repositoryPath, mkdirError)
	}
	_, executionError := client.run(executionContext, repositoryPath, gitInitSubcommandConstant)
	return executionError
}

// Clone copies remoteURL into repositoryPath, naming the remote remoteName.
// The destination must not exist; its parent directories are created.
func (client *Client) Clone(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if _, statError := os.Stat(repositoryPath); statError == nil {
		return fmt.Errorf(repositoryAlreadyExistsTemplate, repositoryPath)
	}
	parentDirectory := filepath.Dir(repositoryPath)
	if mkdirError := os.MkdirAll(parentDirectory, repositoryDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(createRepositoryDirectoryTemplate, parentDirectory, mkdirError)
	}
	_, executionError := client.runNetwork(executionContext, parentDirectory, gitCloneSubcommandConstant, gitOriginFlagConstant, remoteName, remoteURL, filepath.Base(repositoryPath))
	return executionError
}

// Fetch downloads objects and refs from remoteName.
func (client *Client) Fetch(executionContext context.Context, repositoryPath string, remoteName string, prune bool) error {
	arguments := []string{gitFetchSubcommandConstant}
	if prune {
		arguments = append(arguments, gitPruneFlagConstant)
	}
	arguments = append(arguments, remoteName)
	_, executionError := client.runNetwork(executionContext, repositoryPath, arguments...)
	return executionError
}

// ListRemotes returns the configured remote names in git's order.
func (client *Client) ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(result.StandardOutput), nil
}

// AddRemote registers a new remote.
func (client *Client) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL)
	return executionError
}

// RemoveRemote deletes a remote along with its remote-tracking branches.
func (client *Client) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRemoveSubcommandConstant, remoteName)
	return executionError
}

// GetConfigValue reads a configuration key. The boolean is false when the key is unset.
func (client *Client) GetConfigValue(executionContext context.Context, repositoryPath string, key string) (string, bool, error) {
	result, executionError := client.runQuery(executionContext, repositoryPath, []int{gitQueryNoMatchExitCode}, gitConfigSubcommandConstant, gitConfigGetFlagConstant, key)
	if executionError != nil {
		if exitCode, failed := execshell.ExitCode(executionError); failed && exitCode == gitQueryNoMatchExitCode {
			return "", false, nil
		}
		return "", false, executionError
	}
	return strings.TrimSpace(result.StandardOutput), true, nil
}

// SetConfigValue writes a configuration key.
func (client *Client) SetConfigValue(executionContext context.Context, repositoryPath string, key string, value string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitConfigSubcommandConstant, key, value)
	return executionError
}

// ListLocalBranches returns local branches in refname order.
func (client *Client) ListLocalBranches(executionContext context.Context, repositoryPath string) ([]LocalBranchListing, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitLocalBranchFormatConstant, gitLocalBranchNamespaceConstant)
	if executionError != nil {
		return nil, executionError
	}
	return parseLocalBranchListing(result.StandardOutput), nil
}

// ListRemoteTrackingBranches returns remote-tracking branches as "remote/branch"
// names, including symbolic entries such as "origin/HEAD".
func (client *Client) ListRemoteTrackingBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitForEachRefSubcommandConstant, gitRemoteBranchFormatConstant, gitRemoteBranchNamespaceConstant)
	if executionError != nil {
		return nil, executionError
	}
	return parseRemoteTrackingListing(result.StandardOutput), nil
}

// ListRemoteBranches returns the branch names advertised by remoteName.
func (client *Client) ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	result, executionError := client.runNetwork(executionContext, repositoryPath, gitLsRemoteSubcommandConstant, gitHeadsFlagConstant, remoteName)
	if executionError != nil {
		return nil, executionError
	}
	return parseAdvertisedBranches(result.StandardOutput), nil
}

// CheckedOutRevision returns the checked-out branch name, or the commit id
// when HEAD is detached. A HEAD that names a branch without commits, as in a
// freshly initialized repository, yields ErrUnbornHead.
func (client *Client) CheckedOutRevision(executionContext context.Context, repositoryPath string) (string, error) {
	commitResult, commitError := client.runQuery(executionContext, repositoryPath, []int{gitQueryNoMatchExitCode}, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadReferenceConstant)
	if commitError != nil {
		if exitCode, failed := execshell.ExitCode(commitError); failed && exitCode == gitQueryNoMatchExitCode {
			return "", fmt.Errorf(unbornHeadTemplate, ErrUnbornHead, repositoryPath)
		}
		return "", commitError
	}
	commit := strings.TrimSpace(commitResult.StandardOutput)
	if len(commit) == 0 {
		return "", fmt.Errorf(unexpectedRevisionOutputTemplate, repositoryPath)
	}

	symbolicResult, symbolicError := client.runQuery(executionContext, repositoryPath, []int{gitQueryNoMatchExitCode}, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant)
	if symbolicError != nil {
		if exitCode, failed := execshell.ExitCode(symbolicError); failed && exitCode == gitQueryNoMatchExitCode {
			return commit, nil
		}
		return "", symbolicError
	}
	referenceName := plumbing.ReferenceName(strings.TrimSpace(symbolicResult.StandardOutput))
	if referenceName.IsBranch() {
		return referenceName.Short(), nil
	}
	return commit, nil
}

// WorktreeClean reports whether the worktree has no changes to tracked files.
// Untracked files do not make a worktree dirty.
func (client *Client) WorktreeClean(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	for _, statusLine := range splitNonEmptyLines(result.StandardOutput) {
		if !strings.HasPrefix(statusLine, untrackedStatusPrefixConstant) {
			return false, nil
		}
	}
	return true, nil
}

// AddTrackingBranch creates branchName tracking upstreamName.
func (client *Client) AddTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, upstreamName string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitTrackFlagConstant, branchName, upstreamName)
	return executionError
}

// RemoveLocalBranch force-deletes branchName.
func (client *Client) RemoveLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitBranchSubcommandConstant, gitForceDeleteFlagConstant, branchName)
	return executionError
}

// Checkout switches the worktree to revision.
func (client *Client) Checkout(executionContext context.Context, repositoryPath string, revision string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, revision)
	return executionError
}

// Stash saves uncommitted changes to the stash stack.
func (client *Client) Stash(executionContext context.Context, repositoryPath string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitStashSubcommandConstant)
	return executionError
}

// ApplyStash re-applies the newest stash entry without dropping it.
func (client *Client) ApplyStash(executionContext context.Context, repositoryPath string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitStashSubcommandConstant, gitStashApplySubcommandConstant)
	return executionError
}

// Merge merges revision into the checked-out branch.
func (client *Client) Merge(executionContext context.Context, repositoryPath string, revision string) (MergeResult, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitMergeSubcommandConstant, gitNoEditFlagConstant, revision)
	if executionError != nil {
		return MergeResult{}, executionError
	}
	return parseMergeOutput(result.StandardOutput), nil
}

// ResetHard resets the checked-out branch and worktree to revision.
func (client *Client) ResetHard(executionContext context.Context, repositoryPath string, revision string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant, revision)
	return executionError
}

// ListCommits returns commit ids reachable from revision, newest first.
func (client *Client) ListCommits(executionContext context.Context, repositoryPath string, revision string) ([]string, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitRevListSubcommandConstant, revision, gitPathSeparatorArgumentConstant)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(result.StandardOutput), nil
}

// CountObjects reports loose object statistics.
func (client *Client) CountObjects(executionContext context.Context, repositoryPath string) (ObjectCounts, error) {
	result, executionError := client.run(executionContext, repositoryPath, gitCountObjectsSubcommandConstant)
	if executionError != nil {
		return ObjectCounts{}, executionError
	}
	return parseObjectCounts(result.StandardOutput)
}

// GarbageCollect packs loose objects.
func (client *Client) GarbageCollect(executionContext context.Context, repositoryPath string) error {
	_, executionError := client.run(executionContext, repositoryPath, gitGarbageCollectSubcommand)
	return executionError
}

func (client *Client) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return client.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

// runQuery runs a git command whose expectedExitCodes report "no such value" rather than a failure.
func (client *Client) runQuery(executionContext context.Context, repositoryPath string, expectedExitCodes []int, arguments ...string) (execshell.ExecutionResult, error) {
	return client.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:         arguments,
		WorkingDirectory:  repositoryPath,
		ExpectedExitCodes: expectedExitCodes,
	})
}

func (client *Client) runNetwork(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	var result execshell.ExecutionResult
	poolError := client.networkPool.Run(executionContext, func() error {
		var executionError error
		result, executionError = client.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:            arguments,
			WorkingDirectory:     repositoryPath,
			EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentKey: gitTerminalPromptDisabledValue},
		})
		return executionError
	})
	if poolError != nil {
		return execshell.ExecutionResult{}, poolError
	}
	return result, nil
}
