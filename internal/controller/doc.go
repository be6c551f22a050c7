// Package controller drives one sync cycle per service.
//
// A cycle is a small state machine: check the circuit, execute the
// external sync under a bounded timeout, classify any failure, record it
// with the circuit breaker, run the recovery chain, then retry
// immediately, retry after an adaptive backoff, or stop for an operator.
// The attempt count is hard-bounded so a cycle always completes in finite
// time, and the whole cycle honors the caller's context deadline.
package controller
