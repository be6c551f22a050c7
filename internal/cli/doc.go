// Package cli implements the syncguard subcommands. Each command builds
// the full reliability stack from configuration, so scheduled runs and
// manual invocations always share the same circuit state store.
package cli
