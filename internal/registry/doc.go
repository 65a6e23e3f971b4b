// Package registry keeps the set of repositories under management.
//
// A Manager holds repositories keyed by path, loads and saves them through a
// Store backed by a YAML registry file, discovers checkouts on disk, and fans
// synchronization commands out over the active subset with bounded
// concurrency. Supported version-control systems are described by RepoType
// values collected in a TypeTable that is built once at startup.
package registry
