package execshell

import (
	"context"
	"slices"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// Supported executables.
const (
	CommandGit CommandName = CommandName("git")
)

// CommandDetails describes the arguments and environment of a single invocation.
// ExpectedExitCodes lists non-zero statuses that answer a query rather than signal a
// failure, such as git config --get exiting 1 for an unset key. They are still
// returned as CommandFailedError but are not logged as warnings.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	ExpectedExitCodes    []int
}

// ExpectsExitCode reports whether exitCode is a listed, non-alarming outcome.
func (details CommandDetails) ExpectsExitCode(exitCode int) bool {
	return exitCode != 0 && slices.Contains(details.ExpectedExitCodes, exitCode)
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
