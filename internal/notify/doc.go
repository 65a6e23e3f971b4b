// Package notify renders progress messages, confirmation prompts and branch
// tables for terminal users.
package notify
