// Package gitcli issues the git subcommands needed to synchronize branches
// and parses their output into plain Go values.
//
// Client is the production implementation of the executor consumed by the
// repository engine. Network-bound operations share a Pool so that a large
// batch never opens more concurrent connections than configured.
package gitcli
