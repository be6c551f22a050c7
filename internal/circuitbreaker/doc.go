// Package circuitbreaker implements the circuit breaker pattern for cloud
// sync services.
//
// A circuit breaker prevents wasted retries against a persistently failing
// mount point. It has three states:
//
//   - closed: normal operation, sync attempts pass through
//   - open: service failing, attempts blocked until the reset timeout
//   - half_open: testing recovery with a single probe
//
// Unlike an in-process breaker, state is persisted through a Store keyed by
// service id, so overlapping scheduled invocations and manual runs share
// one view of each circuit. Thresholds and reset timeouts come from the
// policy table for the last classified error category.
//
// Usage:
//
//	br := circuitbreaker.New(fileStore, log)
//	ok, err := br.Allow("icloud")
//	if ok {
//	    // Run the sync...
//	    br.HandleResult("icloud", success, category)
//	}
package circuitbreaker
