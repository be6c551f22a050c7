// Package policy holds the compiled-in table mapping error categories to
// circuit breaker thresholds, reset timeouts, severities, and the ordered
// recovery action chains the recovery engine runs.
package policy
