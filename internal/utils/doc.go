// Package utils holds the ambient plumbing shared by every reps command:
// layered configuration loading, zap logger construction and command context values.
package utils
