package controller

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
	"github.com/angeloszaimis/syncguard/internal/errclass"
	"github.com/angeloszaimis/syncguard/internal/metrics"
	"github.com/angeloszaimis/syncguard/internal/mounthealth"
	"github.com/angeloszaimis/syncguard/internal/policy"
	"github.com/angeloszaimis/syncguard/internal/recovery"
	"github.com/angeloszaimis/syncguard/internal/syncexec"
)

// Service describes one synchronized cloud service.
type Service struct {
	ID       string
	Command  []string
	Recovery recovery.Context
}

// SyncRunner abstracts the subprocess execution so tests can fail syncs
// without spawning anything.
type SyncRunner interface {
	Execute(ctx context.Context, serviceID string, command []string) syncexec.Result
}

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 30 * time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Minute
	}
	return o
}

// Controller orchestrates one sync cycle per service: circuit check,
// bounded execution, classification, recovery, and adaptive retry.
type Controller struct {
	breaker *circuitbreaker.Breaker
	engine  *recovery.Engine
	runner  SyncRunner
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
}

func New(
	breaker *circuitbreaker.Breaker,
	engine *recovery.Engine,
	runner SyncRunner,
	m *metrics.Metrics,
	opts Options,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		breaker: breaker,
		engine:  engine,
		runner:  runner,
		metrics: m,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// RunCycle runs one complete cycle for a service and always terminates in
// finite time: the attempt count is hard-bounded and every wait observes
// the context deadline. Only raw sync outcomes reach the circuit breaker;
// recovery results steer the next step and nothing else.
func (c *Controller) RunCycle(ctx context.Context, svc Service) CycleResult {
	started := time.Now()
	cycleID := uuid.NewString()
	log := c.logger.With(
		slog.String("service", svc.ID),
		slog.String("cycle", cycleID))

	attempts := 0
	lastError := errclass.Transient

	finish := func(outcome Outcome) CycleResult {
		res := CycleResult{
			CycleID:   cycleID,
			ServiceID: svc.ID,
			Outcome:   outcome,
			Attempts:  attempts,
			LastError: lastError,
			Duration:  time.Since(started),
		}
		if c.metrics != nil {
			c.metrics.RecordCycle(svc.ID, string(outcome), attempts, res.Duration)
		}
		log.Info("cycle finished",
			slog.String("outcome", string(outcome)),
			slog.Int("attempts", attempts),
			slog.Duration("duration", res.Duration))
		return res
	}

	allowed, err := c.breaker.Allow(svc.ID)
	if err != nil {
		log.Error("circuit state store unusable", slog.Any("err", err))
		return finish(OutcomeFailedFatal)
	}
	if !allowed {
		// An open circuit is not a new failure; nothing is recorded.
		log.Info("circuit open, skipping cycle")
		return finish(OutcomeSkippedCircuitOpen)
	}

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return finish(OutcomeFailedTimeout)
		}

		attempts++
		result := c.execute(ctx, svc)

		if result.ExitStatus != 0 && ctx.Err() != nil {
			// A run cut short by the cycle deadline is a timeout, not a
			// service failure; nothing reaches the breaker or recovery.
			return finish(OutcomeFailedTimeout)
		}

		if result.ExitStatus == 0 {
			if err := c.breaker.HandleResult(svc.ID, true, lastError); err != nil {
				log.Error("recording success failed", slog.Any("err", err))
				return finish(OutcomeFailedFatal)
			}
			return finish(OutcomeSuccess)
		}

		category := errclass.Classify(result.ExitStatus, result.Output)
		lastError = category
		log.Warn("sync attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("exit_status", result.ExitStatus),
			slog.String("error_type", category.String()),
			slog.String("output", truncate(result.Output, 400)))

		if err := c.breaker.HandleResult(svc.ID, false, category); err != nil {
			log.Error("recording failure failed", slog.Any("err", err))
			return finish(OutcomeFailedFatal)
		}

		outcome := c.engine.Attempt(ctx, svc.ID, category, svc.Recovery)
		log.Info("recovery finished",
			slog.Bool("attempted", outcome.Attempted),
			slog.Bool("succeeded", outcome.Succeeded),
			slog.String("next", outcome.Next.String()))

		if outcome.Next == recovery.ManualIntervention {
			return finish(OutcomeFailedManual)
		}
		if attempt == c.opts.MaxRetries {
			break
		}
		if outcome.Next == recovery.RetryWithDelay {
			delay := c.backoffDelay(attempt, category)
			log.Info("backing off before retry", slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return finish(OutcomeFailedTimeout)
			case <-time.After(delay):
			}
		}
	}

	return finish(OutcomeFailedExhausted)
}

// execute runs one attempt, with a pre-flight probe of the mount path so a
// missing mount is reported without spawning the subprocess at all.
func (c *Controller) execute(ctx context.Context, svc Service) syncexec.Result {
	if svc.Recovery.MountPath != "" {
		if err := mounthealth.Probe(svc.Recovery.MountPath); err != nil {
			return syncexec.Result{
				ExitStatus: 1,
				Output:     fmt.Sprintf("mount point unavailable: %v", err),
			}
		}
	}
	return c.runner.Execute(ctx, svc.ID, svc.Command)
}

// backoffDelay scales the base delay by attempt number and category
// severity, capped at MaxDelay, with ±20% jitter so concurrently scheduled
// services do not retry in lockstep.
func (c *Controller) backoffDelay(attempt int, category errclass.Category) time.Duration {
	mult := 1 + int64(policy.For(category).Severity)
	delay := c.opts.BaseDelay * time.Duration(int64(1)<<uint(attempt-1)) * time.Duration(mult)
	if delay > c.opts.MaxDelay {
		delay = c.opts.MaxDelay
	}

	jitter := 0.8 + rand.Float64()*0.4
	delay = time.Duration(float64(delay) * jitter)
	if delay > c.opts.MaxDelay {
		delay = c.opts.MaxDelay
	}
	return delay
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
