package synccmd_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/reps/internal/registry"
	"github.com/temirov/reps/internal/synccmd"
)

func TestDiscoverCommandWritesRegistry(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	harness.checkout(testInstance, "beta")

	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))

	contents, readError := os.ReadFile(harness.registryFile)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(contents), harness.alphaPath()+":git")
	require.Contains(testInstance, string(contents), testOriginURLConstant)
	require.NotContains(testInstance, string(contents), filepath.Join(harness.workspace, "beta"))
	require.Contains(testInstance, harness.output.String(), "Registered 1 repositories")
}

func TestDiscoverCommandRejectsSeveralRoots(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)

	executionError := harness.execute(testInstance, "discover", harness.workspace, harness.alphaPath())
	require.Error(testInstance, executionError)
	require.NoFileExists(testInstance, harness.registryFile)
}

func TestDiscoverCommandHonorsMaxDepth(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	nestedPath := harness.checkout(testInstance, filepath.Join("group", "nested"))
	harness.executor.script(nestedPath, scriptedResponse{output: "origin\n"}, "remote")
	harness.executor.script(nestedPath, scriptedResponse{output: "https://github.com/team/nested.git\n"}, gitConfigSubcommandConstant, gitConfigGetFlagConstant, "remote.origin.url")

	require.NoError(testInstance, harness.execute(testInstance, "discover", "--max-depth", "1", harness.workspace))

	contents, readError := os.ReadFile(harness.registryFile)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(contents), harness.alphaPath())
	require.NotContains(testInstance, string(contents), nestedPath)
}

func TestRegistryCommandsRequireRegistry(testInstance *testing.T) {
	for _, commandName := range []string{"fetch", "merge", "pull", "status", "compact"} {
		testInstance.Run(commandName, func(subtest *testing.T) {
			harness := newCommandHarness(subtest)
			executionError := harness.execute(subtest, commandName)
			require.ErrorIs(subtest, executionError, registry.ErrRegistryNotFound)
		})
	}
}

func TestCommandsRejectUnknownRepositories(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))

	executionError := harness.execute(testInstance, "fetch", filepath.Join(harness.workspace, "missing"))
	require.ErrorIs(testInstance, executionError, synccmd.ErrNoRepositoriesSelected)
}

func TestStatusCommandPrintsRemotesAndBranches(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))
	harness.executor.script(harness.alphaPath(), scriptedResponse{output: "*\trefs/heads/main\n"}, "for-each-ref", "--format=%(HEAD)\t%(refname)", "refs/heads")
	harness.executor.script(harness.alphaPath(), scriptedResponse{output: "refs/remotes/origin/main\n"}, "for-each-ref", "--format=%(refname)", "refs/remotes")
	harness.output.Reset()

	require.NoError(testInstance, harness.execute(testInstance, "status"))

	output := harness.output.String()
	require.Contains(testInstance, output, harness.alphaPath())
	require.Contains(testInstance, output, "origin: ")
	require.Contains(testInstance, output, "Branch")
	require.Contains(testInstance, output, "main")
	require.False(testInstance, harness.executor.invoked(harness.alphaPath(), "ls-remote", "--heads", "origin"))
}

func TestStatusCommandListsRemoteBranches(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))

	require.NoError(testInstance, harness.execute(testInstance, "status", "--remote"))
	require.True(testInstance, harness.executor.invoked(harness.alphaPath(), "ls-remote", "--heads", "origin"))
}

func TestFetchCommandReportsFailedRepositories(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))
	harness.executor.script(harness.alphaPath(), scriptedResponse{exitCode: gitFatalExitCode}, "fetch", "--prune", "origin")

	executionError := harness.execute(testInstance, "fetch")
	require.Error(testInstance, executionError)

	var batchError registry.BatchError
	require.True(testInstance, errors.As(executionError, &batchError))
	require.Equal(testInstance, 1, batchError.Total)
	require.Len(testInstance, batchError.Failures, 1)
	require.Equal(testInstance, harness.alphaPath(), batchError.Failures[0].RepositoryPath)
}

func TestPullCommandSkipsMergeAfterFailedFetch(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))
	harness.executor.script(harness.alphaPath(), scriptedResponse{exitCode: gitFatalExitCode}, "fetch", "--prune", "origin")

	require.Error(testInstance, harness.execute(testInstance, "pull"))
	require.False(testInstance, harness.executor.invoked(harness.alphaPath(), "status", "--porcelain"))
}

func TestMergeCommandScenarios(testInstance *testing.T) {
	testCases := []struct {
		name           string
		setup          func(*commandHarness)
		expectFailure  bool
		expectRestored bool
	}{
		{
			name: "restores_checked_out_branch",
			setup: func(harness *commandHarness) {
				harness.executor.script(harness.alphaPath(), scriptedResponse{output: "a1b2c3\n"}, "rev-parse", "--verify", "--quiet", "HEAD")
				harness.executor.script(harness.alphaPath(), scriptedResponse{output: "refs/heads/main\n"}, "symbolic-ref", "--quiet", "HEAD")
			},
			expectRestored: true,
		},
		{
			name: "fails_without_known_revision",
			setup: func(harness *commandHarness) {
				harness.executor.script(harness.alphaPath(), scriptedResponse{exitCode: gitFatalExitCode}, "rev-parse", "--verify", "--quiet", "HEAD")
			},
			expectFailure: true,
		},
		{
			name: "reports_unrestored_branch",
			setup: func(harness *commandHarness) {
				harness.executor.script(harness.alphaPath(), scriptedResponse{output: "a1b2c3\n"}, "rev-parse", "--verify", "--quiet", "HEAD")
				harness.executor.script(harness.alphaPath(), scriptedResponse{output: "refs/heads/main\n"}, "symbolic-ref", "--quiet", "HEAD")
				harness.executor.script(harness.alphaPath(), scriptedResponse{exitCode: gitFatalExitCode}, "checkout", "main")
			},
			expectFailure: true,
		},
		{
			name: "unborn_branch_has_nothing_to_restore",
			setup: func(harness *commandHarness) {
				harness.executor.script(harness.alphaPath(), scriptedResponse{exitCode: gitMissingKeyExitCode}, "rev-parse", "--verify", "--quiet", "HEAD")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(subtest)
			require.NoError(subtest, harness.execute(subtest, "discover", harness.workspace))
			testCase.setup(harness)

			executionError := harness.execute(subtest, "merge")
			if testCase.expectFailure {
				require.Error(subtest, executionError)
				return
			}
			require.NoError(subtest, executionError)
			require.Equal(subtest, testCase.expectRestored, harness.executor.invoked(harness.alphaPath(), "checkout", "main"))
		})
	}
}

func TestCloneCommandRegistersCheckout(testInstance *testing.T) {
	const gammaURL = "https://github.com/team/gamma.git"
	testCases := []struct {
		name              string
		discoverFirst     bool
		expectedDirectory string
	}{
		{name: "new_registry", expectedDirectory: "gamma"},
		{name: "existing_registry_keeps_entries", discoverFirst: true, expectedDirectory: "gamma"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(subtest)
			if testCase.discoverFirst {
				require.NoError(subtest, harness.execute(subtest, "discover", harness.workspace))
			}
			gammaPath := filepath.Join(harness.workspace, testCase.expectedDirectory)
			harness.executor.script(gammaPath, scriptedResponse{output: "origin\n"}, "remote")
			harness.executor.script(gammaPath, scriptedResponse{output: gammaURL + "\n"}, gitConfigSubcommandConstant, gitConfigGetFlagConstant, "remote.origin.url")

			require.NoError(subtest, harness.execute(subtest, "clone", gammaURL, gammaPath))

			require.True(subtest, harness.executor.invoked(harness.workspace, "clone", "--origin", "origin", gammaURL, "gamma"))
			contents, readError := os.ReadFile(harness.registryFile)
			require.NoError(subtest, readError)
			require.Contains(subtest, string(contents), gammaPath+":git")
			require.Contains(subtest, string(contents), gammaURL)
			require.Equal(subtest, testCase.discoverFirst, strings.Contains(string(contents), harness.alphaPath()+":git"))
			require.Contains(subtest, harness.output.String(), "Cloning "+gammaURL)
		})
	}
}

func TestCloneCommandRejectsExistingDestination(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)

	executionError := harness.execute(testInstance, "clone", testOriginURLConstant, harness.alphaPath())
	require.ErrorContains(testInstance, executionError, "already exists")
	require.False(testInstance, harness.executor.invoked(harness.workspace, "clone", "--origin", "origin", testOriginURLConstant, "alpha"))
	require.NoFileExists(testInstance, harness.registryFile)
}

func TestCloneCommandRequiresURL(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.Error(testInstance, harness.execute(testInstance, "clone"))
	require.Error(testInstance, harness.execute(testInstance, "clone", "a", "b", "c"))
}

func TestCompactCommandScenarios(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectCollection  bool
		expectedSummaries []string
	}{
		{
			name:              "packs_loose_objects",
			arguments:         []string{"compact"},
			expectCollection:  true,
			expectedSummaries: []string{"12 objects, 48 kilobytes", "0 objects, 0 kilobytes"},
		},
		{
			name:              "check_only",
			arguments:         []string{"compact", "--check"},
			expectedSummaries: []string{"12 objects, 48 kilobytes"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			harness := newCommandHarness(subtest)
			require.NoError(subtest, harness.execute(subtest, "discover", harness.workspace))
			harness.executor.script(harness.alphaPath(), scriptedResponse{output: "12 objects, 48 kilobytes\n"}, "count-objects")
			harness.executor.script(harness.alphaPath(), scriptedResponse{output: "0 objects, 0 kilobytes\n"}, "count-objects")

			require.NoError(subtest, harness.execute(subtest, testCase.arguments...))
			require.Equal(subtest, testCase.expectCollection, harness.executor.invoked(harness.alphaPath(), "gc"))
			for _, expectedSummary := range testCase.expectedSummaries {
				require.Contains(subtest, harness.output.String(), expectedSummary)
			}
		})
	}
}

func TestCommandsLogSelection(testInstance *testing.T) {
	harness := newCommandHarness(testInstance)
	require.NoError(testInstance, harness.execute(testInstance, "discover", harness.workspace))

	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	harness.logger = zap.New(observedCore)
	harness.executor.script(harness.alphaPath(), scriptedResponse{output: "0 objects, 0 kilobytes\n"}, "count-objects")

	require.NoError(testInstance, harness.execute(testInstance, "compact", harness.alphaPath()))
	selectionEntries := observedLogs.FilterMessage("Selected repositories").All()
	require.Len(testInstance, selectionEntries, 1)
	require.Equal(testInstance, int64(1), selectionEntries[0].ContextMap()["active_repositories"])
}
