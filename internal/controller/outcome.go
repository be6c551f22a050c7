package controller

import (
	"time"

	"github.com/angeloszaimis/syncguard/internal/errclass"
)

// Outcome is the terminal result of one sync cycle.
type Outcome string

const (
	// OutcomeSuccess: the sync operation completed.
	OutcomeSuccess Outcome = "success"
	// OutcomeSkippedCircuitOpen: the circuit blocked the cycle before any
	// subprocess ran. Expected steady-state protection, not an error.
	OutcomeSkippedCircuitOpen Outcome = "skipped_circuit_open"
	// OutcomeFailedExhausted: every permitted attempt failed.
	OutcomeFailedExhausted Outcome = "failed_exhausted"
	// OutcomeFailedManual: recovery had no remediation; an operator must act.
	OutcomeFailedManual Outcome = "failed_manual"
	// OutcomeFailedTimeout: the overall cycle deadline expired.
	OutcomeFailedTimeout Outcome = "failed_timeout"
	// OutcomeFailedFatal: the circuit state store was unusable this cycle.
	OutcomeFailedFatal Outcome = "failed_fatal"
)

// NeedsAttention distinguishes outcomes that require operator action from
// expected protection and success.
func (o Outcome) NeedsAttention() bool {
	switch o {
	case OutcomeFailedExhausted, OutcomeFailedManual, OutcomeFailedFatal:
		return true
	default:
		return false
	}
}

// CycleResult summarizes one completed cycle for logs and metrics.
type CycleResult struct {
	CycleID   string
	ServiceID string
	Outcome   Outcome
	Attempts  int
	LastError errclass.Category
	Duration  time.Duration
}
