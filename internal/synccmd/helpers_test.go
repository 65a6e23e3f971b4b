package synccmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/reps/internal/execshell"
	"github.com/temirov/reps/internal/synccmd"
)

const (
	gitConfigSubcommandConstant = "config"
	gitConfigGetFlagConstant    = "--get"
	gitCloneSubcommandConstant  = "clone"
	invocationSeparatorConstant = "|"
	argumentSeparatorConstant   = " "
	gitMissingKeyExitCode       = 1
	gitFatalExitCode            = 128
	testOriginURLConstant       = "https://github.com/team/alpha.git"
	testRegistryFileName        = "registry.yaml"
)

type scriptedResponse struct {
	output   string
	exitCode int
}

// scriptedGitExecutor replays queued responses keyed by working directory and
// arguments. Unscripted invocations succeed with empty output, except reads of
// configuration keys, which report the key as unset. A successful clone leaves
// an empty metadata directory at its destination.
type scriptedGitExecutor struct {
	mutex       sync.Mutex
	responses   map[string][]scriptedResponse
	invocations []string
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{responses: map[string][]scriptedResponse{}}
}

func invocationKey(workingDirectory string, arguments ...string) string {
	return workingDirectory + invocationSeparatorConstant + strings.Join(arguments, argumentSeparatorConstant)
}

func (executor *scriptedGitExecutor) script(workingDirectory string, response scriptedResponse, arguments ...string) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	key := invocationKey(workingDirectory, arguments...)
	executor.responses[key] = append(executor.responses[key], response)
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()

	key := invocationKey(details.WorkingDirectory, details.Arguments...)
	executor.invocations = append(executor.invocations, key)

	response, scripted := executor.next(key)
	if !scripted {
		if len(details.Arguments) > 1 && details.Arguments[0] == gitConfigSubcommandConstant && details.Arguments[1] == gitConfigGetFlagConstant {
			response = scriptedResponse{exitCode: gitMissingKeyExitCode}
		}
	}

	result := execshell.ExecutionResult{StandardOutput: response.output, ExitCode: response.exitCode}
	if response.exitCode != 0 {
		return result, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  result,
		}
	}
	if len(details.Arguments) > 0 && details.Arguments[0] == gitCloneSubcommandConstant {
		destination := filepath.Join(details.WorkingDirectory, details.Arguments[len(details.Arguments)-1], ".git")
		if mkdirError := os.MkdirAll(destination, 0o755); mkdirError != nil {
			return execshell.ExecutionResult{}, mkdirError
		}
	}
	return result, nil
}

func (executor *scriptedGitExecutor) next(key string) (scriptedResponse, bool) {
	queued := executor.responses[key]
	if len(queued) == 0 {
		return scriptedResponse{}, false
	}
	if len(queued) > 1 {
		executor.responses[key] = queued[1:]
	}
	return queued[0], true
}

func (executor *scriptedGitExecutor) invoked(workingDirectory string, arguments ...string) bool {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	key := invocationKey(workingDirectory, arguments...)
	for _, invocation := range executor.invocations {
		if invocation == key {
			return true
		}
	}
	return false
}

type commandHarness struct {
	workspace    string
	registryFile string
	executor     *scriptedGitExecutor
	output       *bytes.Buffer
	logger       *zap.Logger
}

// newCommandHarness creates a workspace holding one checkout, alpha, whose
// origin remote points at testOriginURLConstant.
func newCommandHarness(testInstance *testing.T) *commandHarness {
	testInstance.Helper()
	workspace := testInstance.TempDir()
	harness := &commandHarness{
		workspace:    workspace,
		registryFile: filepath.Join(workspace, testRegistryFileName),
		executor:     newScriptedGitExecutor(),
		output:       &bytes.Buffer{},
		logger:       zap.NewNop(),
	}
	alphaPath := harness.checkout(testInstance, "alpha")
	harness.executor.script(alphaPath, scriptedResponse{output: "origin\n"}, "remote")
	harness.executor.script(alphaPath, scriptedResponse{output: testOriginURLConstant + "\n"}, gitConfigSubcommandConstant, gitConfigGetFlagConstant, "remote.origin.url")
	return harness
}

func (harness *commandHarness) checkout(testInstance *testing.T, name string) string {
	testInstance.Helper()
	checkoutPath := filepath.Join(harness.workspace, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(checkoutPath, ".git"), 0o755))
	return checkoutPath
}

func (harness *commandHarness) alphaPath() string {
	return filepath.Join(harness.workspace, "alpha")
}

func (harness *commandHarness) execute(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	builder := synccmd.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return harness.logger },
		ConfigurationProvider: func() synccmd.CommandConfiguration {
			configuration := synccmd.DefaultCommandConfiguration()
			configuration.RegistryFile = harness.registryFile
			return configuration
		},
		GitExecutor: harness.executor,
		Output:      harness.output,
	}
	commands, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	rootCommand := &cobra.Command{Use: "reps", SilenceUsage: true, SilenceErrors: true}
	rootCommand.AddCommand(commands...)
	rootCommand.SetArgs(arguments)
	rootCommand.SetOut(harness.output)
	rootCommand.SetErr(harness.output)
	return rootCommand.ExecuteContext(context.Background())
}
