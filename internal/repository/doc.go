// Package repository models a single version-controlled checkout and drives
// its branch synchronization.
//
// A Repository owns its remotes and local branches. Remotes own the
// remote-tracking and advertised branches beneath them. Local branches refer to
// their upstream by name, and the upstream records which local branch tracks
// it; the engine keeps both sides in lock-step.
//
// CmdFetch reconciles the checkout's remote configuration and downloads every
// remote. CmdMerge prunes stale tracking branches, creates missing ones for the
// canonical remote, and merges each tracked upstream behind a stash so that the
// worktree is returned to the revision it started from.
package repository
