package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	environmentKeyValueSeparatorConstant = "="
)

// ProcessRunner starts each command as a child process of reps.
type ProcessRunner struct {
	baseEnvironment func() []string
}

// NewProcessRunner constructs a runner that inherits the environment of the current process.
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{baseEnvironment: os.Environ}
}

// Run starts the command and waits for it. A process that exits with a non-zero status is not
// an error here; its status is returned in ExecutionResult.ExitCode for the executor to judge.
// A process killed because executionContext ended reports the context error instead.
func (runner *ProcessRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = mergeEnvironment(runner.baseEnvironment(), command.Details.EnvironmentVariables)
	}
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var capturedOutput, capturedError bytes.Buffer
	process.Stdout = &capturedOutput
	process.Stderr = &capturedError

	waitError := process.Run()
	result := ExecutionResult{StandardOutput: capturedOutput.String(), StandardError: capturedError.String()}
	if waitError == nil {
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	var exitError *exec.ExitError
	if !errors.As(waitError, &exitError) {
		return ExecutionResult{}, waitError
	}
	result.ExitCode = exitError.ExitCode()
	return result, nil
}

// mergeEnvironment overrides matching keys of base in place and appends the remaining
// overrides in key order, so every variable appears exactly once.
func mergeEnvironment(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	applied := make(map[string]bool, len(overrides))
	for _, assignment := range base {
		key, _, _ := strings.Cut(assignment, environmentKeyValueSeparatorConstant)
		if overrideValue, overridden := overrides[key]; overridden {
			if !applied[key] {
				merged = append(merged, key+environmentKeyValueSeparatorConstant+overrideValue)
				applied[key] = true
			}
			continue
		}
		merged = append(merged, assignment)
	}

	remainingKeys := make([]string, 0, len(overrides))
	for key := range overrides {
		if !applied[key] {
			remainingKeys = append(remainingKeys, key)
		}
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		merged = append(merged, key+environmentKeyValueSeparatorConstant+overrides[key])
	}
	return merged
}
