// Package synccmd exposes the repository synchronization commands (discover,
// clone, fetch, merge, pull, status and compact) and the service that runs them
// across the repositories recorded in a registry file.
package synccmd
