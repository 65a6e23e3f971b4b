package ui

import (
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/reps/internal/execshell"
)

const (
	outputLinePrefixConstant    = "> "
	outputLineSeparatorConstant = "\n"
)

// ConsoleCommandEventLogger renders git invocations as short human-readable
// debug lines. Each line of standard output follows its command prefixed by "> ".
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	for _, outputLine := range splitNonEmptyLines(result.StandardOutput) {
		eventLogger.logger.Debug(outputLinePrefixConstant + outputLine)
	}
	if result.ExitCode == 0 || command.Details.ExpectsExitCode(result.ExitCode) {
		return
	}
	failureMessage := eventLogger.formatter.BuildFailureMessage(command, result)
	if standardError := strings.TrimSpace(result.StandardError); len(standardError) > 0 {
		failureMessage += ": " + standardError
	}
	eventLogger.logger.Warn(failureMessage)
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}

func splitNonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, outputLineSeparatorConstant) {
		if trimmedLine := strings.TrimRight(line, "\r"); len(strings.TrimSpace(trimmedLine)) > 0 {
			lines = append(lines, trimmedLine)
		}
	}
	return lines
}
