package syncexec

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/angeloszaimis/syncguard/internal/errclass"
)

// Result is the opaque outcome of one invocation of the external sync
// tool. The reliability layer only ever inspects the exit status and the
// combined output text.
type Result struct {
	ExitStatus int
	Output     string
	Duration   time.Duration
}

// Runner executes the external sync subprocess under a bounded, adaptive
// timeout and journals every run.
type Runner struct {
	journal     *Journal
	baseTimeout time.Duration
	logger      *slog.Logger
}

func NewRunner(journal *Journal, baseTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		journal:     journal,
		baseTimeout: baseTimeout,
		logger:      logger,
	}
}

// Timeout computes the bound for the next run. The base timeout is
// doubled for a service's first-ever sync (initial transfers are large)
// and after a run that timed out, as read from the journal.
func (r *Runner) Timeout(serviceID string) time.Duration {
	last, ok := r.journal.Last(serviceID)
	if !ok || last.TimedOut {
		return 2 * r.baseTimeout
	}
	return r.baseTimeout
}

// Execute runs the sync command to completion or the timeout, whichever
// comes first. It never returns an error: spawn failures and timeouts are
// folded into the Result so the caller classifies every failure the same
// way.
func (r *Runner) Execute(ctx context.Context, serviceID string, command []string) Result {
	started := time.Now()

	if len(command) == 0 {
		return Result{
			ExitStatus: errclass.ExitNotFound,
			Output:     "no sync command configured",
		}
	}

	timeout := r.Timeout(serviceID)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logger.Debug("executing sync command",
		slog.String("service", serviceID),
		slog.String("command", command[0]),
		slog.Duration("timeout", timeout))

	cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
	cmd.WaitDelay = 5 * time.Second

	output, err := cmd.CombinedOutput()
	duration := time.Since(started)
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	exitStatus := 0
	switch {
	case err == nil:
	case timedOut:
		exitStatus = errclass.ExitSpawnFailed
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitStatus = exitErr.ExitCode()
		} else {
			// The process never started; surface the reason as output.
			exitStatus = errclass.ExitNotFound
			output = append(output, err.Error()...)
		}
	}

	r.journal.Record(serviceID, Entry{
		StartedAt:       started.UTC(),
		DurationSeconds: duration.Seconds(),
		ExitStatus:      exitStatus,
		TimedOut:        timedOut,
	})

	return Result{
		ExitStatus: exitStatus,
		Output:     string(output),
		Duration:   duration,
	}
}
