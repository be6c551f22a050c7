package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/syncguard/internal/errclass"
	"github.com/angeloszaimis/syncguard/internal/policy"
)

// Breaker gates sync attempts per service. All state lives in the injected
// Store so that concurrently scheduled processes observe each other's
// transitions; the breaker itself holds nothing between calls.
type Breaker struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Breaker {
	return &Breaker{
		store:  store,
		logger: logger,
	}
}

// Allow reports whether a sync attempt may run for the service.
//
// Closed circuits always allow. Open circuits allow exactly one probe once
// the reset timeout for the recorded error type has elapsed, transitioning
// to half-open. A circuit already half-open allows: probes are assumed to
// be single-flight per service.
func (b *Breaker) Allow(serviceID string) (bool, error) {
	allowed := false

	_, err := b.store.Update(serviceID, func(rec Record) Record {
		switch rec.State {
		case StateOpen:
			reset := policy.For(rec.ErrorType).ResetTimeout
			if rec.LastFailureTime != nil && time.Since(*rec.LastFailureTime) >= reset {
				rec.State = StateHalfOpen
				rec.LastUpdated = time.Now().UTC()
				allowed = true
				b.logger.Info("circuit half-open, allowing probe",
					slog.String("service", serviceID),
					slog.String("error_type", rec.ErrorType.String()))
			}
		default:
			allowed = true
		}
		return rec
	})
	if err != nil {
		return false, err
	}

	return allowed, nil
}

// HandleResult records the outcome of one raw sync attempt and applies the
// state transition rules. Recovery action outcomes never pass through
// here; only the sync operation's own success or failure counts.
func (b *Breaker) HandleResult(serviceID string, success bool, errorType errclass.Category) error {
	rec, err := b.store.Update(serviceID, func(rec Record) Record {
		now := time.Now().UTC()
		rec.LastUpdated = now

		if success {
			rec.State = StateClosed
			rec.FailureCount = 0
			return rec
		}

		rec.FailureCount++
		rec.LastFailureTime = &now
		rec.ErrorType = errorType

		switch rec.State {
		case StateHalfOpen:
			// A failed probe reopens immediately; no re-accumulation.
			rec.State = StateOpen
		case StateClosed:
			if rec.FailureCount >= policy.For(errorType).FailureThreshold {
				rec.State = StateOpen
			}
		case StateOpen:
			// Bookkeeping only; the circuit is already protecting.
		}
		return rec
	})
	if err != nil {
		return err
	}

	if !success && rec.State == StateOpen {
		b.logger.Warn("circuit open",
			slog.String("service", serviceID),
			slog.String("error_type", rec.ErrorType.String()),
			slog.Int("failures", rec.FailureCount))
	}

	return nil
}

// Reset overwrites the service record with a closed, zero-failure record.
// Safe to call at any time, including mid-cycle from another process.
func (b *Breaker) Reset(serviceID string) error {
	_, err := b.store.Update(serviceID, func(Record) Record {
		fresh := NewRecord(serviceID)
		fresh.LastUpdated = time.Now().UTC()
		return fresh
	})
	if err != nil {
		return err
	}

	b.logger.Info("circuit reset", slog.String("service", serviceID))
	return nil
}

// ResetAll resets every service known to the store.
func (b *Breaker) ResetAll() error {
	records, err := b.store.List()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := b.Reset(rec.ServiceID); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the persisted record for every known service.
func (b *Breaker) Status() ([]Record, error) {
	return b.store.List()
}
