// Package cli constructs the reps command-line interface: the Cobra root
// command, the layered configuration loader and the zap logger shared by the
// synchronization commands.
package cli
