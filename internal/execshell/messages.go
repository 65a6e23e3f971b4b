package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "running %s"
	succeededMessageTemplateConstant        = "finished %s"
	failedMessageTemplateConstant           = "%s exited with code %d"
	executionFailedMessageTemplateConstant  = "%s did not run: %v"
	gitSubcommandDescriptionTemplate        = "git %s"
	gitRepositorySuffixTemplateConstant     = " in %s"
	unknownGitSubcommandDescriptionConstant = "git"
)

// CommandMessageFormatter renders short human-readable descriptions of git invocations.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command that is about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.Describe(command))
}

// BuildSuccessMessage describes a command that exited cleanly.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(succeededMessageTemplateConstant, formatter.Describe(command))
}

// BuildFailureMessage describes a command that exited with a non-zero status.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(failedMessageTemplateConstant, formatter.Describe(command), result.ExitCode)
}

// BuildExecutionFailureMessage describes a command that could not be run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return fmt.Sprintf(executionFailedMessageTemplateConstant, formatter.Describe(command), failure)
}

// Describe returns "git <subcommand> in <directory>" for git commands and the
// full command line otherwise.
func (formatter CommandMessageFormatter) Describe(command ShellCommand) string {
	if command.Name != CommandGit {
		return formatCommandLabel(command)
	}
	description := unknownGitSubcommandDescriptionConstant
	if len(command.Details.Arguments) > 0 {
		description = fmt.Sprintf(gitSubcommandDescriptionTemplate, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	if len(command.Details.WorkingDirectory) > 0 {
		description += fmt.Sprintf(gitRepositorySuffixTemplateConstant, command.Details.WorkingDirectory)
	}
	return description
}
