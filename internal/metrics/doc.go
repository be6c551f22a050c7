// Package metrics collects per-service sync cycle outcomes and durations
// for the run summary.
//
// The store is thread-safe via sync.RWMutex; Snapshot returns aggregated
// counts and timing per service so the CLI can distinguish protected
// steady-state skips from failures that need operator action.
package metrics
