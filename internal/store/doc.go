// Package store provides implementations of the circuit breaker's
// persistence interface: a YAML file store with advisory locking and
// atomic writes for production, and an in-memory store for tests.
package store
