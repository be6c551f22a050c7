// Package recovery executes remediation chains for classified sync
// failures.
//
// Each error category maps (through the policy table) to an ordered chain
// of named actions. Resolving actions can fix the underlying failure and
// short-circuit the chain on a verified effect; supportive actions, like
// backing up conflicted copies, mitigate only and never short-circuit.
// Every action is idempotent, safe to run when there is nothing to do, and
// reports observed effect rather than "command issued". The engine never
// touches circuit breaker state; it only recommends the caller's next step.
package recovery
