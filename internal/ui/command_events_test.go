package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/reps/internal/execshell"
	"github.com/temirov/reps/internal/ui"
)

const (
	testCommandWorkingDirectoryConstant    = "/tmp/project"
	testCommandDescriptionConstant         = "git fetch --prune origin in /tmp/project"
	testExecutionFailureReasonConstant     = "executable file not found"
	testStandardErrorMessageConstant       = "fatal: remote error"
	testStartMessageExpectationConstant    = "running " + testCommandDescriptionConstant
	testFailureMessageExpectationConstant  = testCommandDescriptionConstant + " exited with code 1: " + testStandardErrorMessageConstant
	testExecutionFailureMessageExpectation = testCommandDescriptionConstant + " did not run: " + testExecutionFailureReasonConstant
)

type expectedLogEntry struct {
	level   zapcore.Level
	message string
}

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"fetch", "--prune", "origin"},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedEntries []expectedLogEntry
	}{
		{
			name: "command_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedEntries: []expectedLogEntry{{level: zapcore.DebugLevel, message: testStartMessageExpectationConstant}},
		},
		{
			name: "command_completed_with_output",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{StandardOutput: "From github.com:team/app\n\n * branch main\n"})
			},
			expectedEntries: []expectedLogEntry{
				{level: zapcore.DebugLevel, message: "> From github.com:team/app"},
				{level: zapcore.DebugLevel, message: ">  * branch main"},
			},
		},
		{
			name: "command_completed_silently",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{})
			},
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorMessageConstant + "\n"})
			},
			expectedEntries: []expectedLogEntry{{level: zapcore.WarnLevel, message: testFailureMessageExpectationConstant}},
		},
		{
			name: "command_completed_with_expected_exit_code",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				queryCommand := command
				queryCommand.Details.ExpectedExitCodes = []int{1}
				logger.CommandCompleted(queryCommand, execshell.ExecutionResult{ExitCode: 1})
			},
		},
		{
			name: "command_execution_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedEntries: []expectedLogEntry{{level: zapcore.ErrorLevel, message: testExecutionFailureMessageExpectation}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			var actualEntries []expectedLogEntry
			for _, entry := range observedLogs.All() {
				actualEntries = append(actualEntries, expectedLogEntry{level: entry.Level, message: entry.Message})
			}
			require.Equal(testInstance, testCase.expectedEntries, actualEntries)
		})
	}
}

func TestConsoleCommandEventLoggerToleratesNilReceiver(testInstance *testing.T) {
	var eventLogger *ui.ConsoleCommandEventLogger
	require.NotPanics(testInstance, func() {
		eventLogger.CommandStarted(execshell.ShellCommand{Name: execshell.CommandGit})
		eventLogger.CommandCompleted(execshell.ShellCommand{Name: execshell.CommandGit}, execshell.ExecutionResult{ExitCode: 2})
		eventLogger.CommandExecutionFailed(execshell.ShellCommand{Name: execshell.CommandGit}, errors.New("boom"))
	})
}
