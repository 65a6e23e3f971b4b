package execshell

// CommandEventObserver follows git invocations as the executor runs them. The console
// renderer uses it to echo commands when reps logs in human-readable form.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called instead of CommandCompleted when no exit status exists.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type silentObserver struct{}

func (silentObserver) CommandStarted(ShellCommand)                    {}
func (silentObserver) CommandCompleted(ShellCommand, ExecutionResult) {}
func (silentObserver) CommandExecutionFailed(ShellCommand, error)     {}
