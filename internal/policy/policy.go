package policy

import (
	"time"

	"github.com/angeloszaimis/syncguard/internal/errclass"
)

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Policy describes how the circuit breaker and recovery engine respond to
// one error category.
type Policy struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	RecoveryActions  []string
	Severity         Severity
	Transient        bool
}

// Categories unlikely to self-heal (authentication, permanent) get low
// thresholds and long reset timeouts: open fast, stop wasting attempts.
// Categories expected to clear on their own get high thresholds and short
// timeouts: tolerate noise, recover quickly.
var table = map[errclass.Category]Policy{
	errclass.Network: {
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Minute,
		RecoveryActions:  []string{"verify_mount"},
		Severity:         SeverityMedium,
		Transient:        true,
	},
	errclass.Authentication: {
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
		RecoveryActions:  []string{"refresh_credentials", "validate_permissions"},
		Severity:         SeverityHigh,
	},
	errclass.Conflict: {
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Minute,
		RecoveryActions:  []string{"backup_conflicts", "clear_stale_locks"},
		Severity:         SeverityMedium,
	},
	errclass.Quota: {
		FailureThreshold: 2,
		ResetTimeout:     2 * time.Hour,
		RecoveryActions:  []string{"cleanup_space", "reset_archives", "compress_logs"},
		Severity:         SeverityHigh,
	},
	errclass.Configuration: {
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
		RecoveryActions:  []string{"verify_mount", "validate_permissions"},
		Severity:         SeverityHigh,
	},
	errclass.Transient: {
		FailureThreshold: 8,
		ResetTimeout:     10 * time.Minute,
		RecoveryActions:  []string{"verify_mount"},
		Severity:         SeverityLow,
		Transient:        true,
	},
	errclass.Permanent: {
		FailureThreshold: 1,
		ResetTimeout:     24 * time.Hour,
		RecoveryActions:  nil, // No safe remediation; requires an operator
		Severity:         SeverityCritical,
	},
	errclass.PartialSync: {
		FailureThreshold: 4,
		ResetTimeout:     20 * time.Minute,
		RecoveryActions:  []string{"backup_conflicts", "reset_archives"},
		Severity:         SeverityMedium,
		Transient:        true,
	},
}

// Default is returned for categories with no table entry. Conservative on
// both axes so an unmapped category cannot retry aggressively.
var Default = Policy{
	FailureThreshold: 5,
	ResetTimeout:     30 * time.Minute,
	Severity:         SeverityMedium,
}

// For returns the policy for a category. It never fails: unknown
// categories fall back to Default.
func For(category errclass.Category) Policy {
	if p, ok := table[category]; ok {
		return p
	}
	return Default
}
