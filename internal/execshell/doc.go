// Package execshell runs git as a child process for reps.
//
// ShellExecutor logs each invocation through zap and reports it to a
// CommandEventObserver. ProcessRunner starts the process with the caller's
// environment overrides applied. A non-zero exit surfaces as CommandFailedError
// while a process that never produced an exit status surfaces as
// CommandExecutionError.
package execshell
