package recovery

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/syncguard/internal/errclass"
	"github.com/angeloszaimis/syncguard/internal/policy"
)

type NextAction int

const (
	RetryImmediately NextAction = iota
	RetryWithDelay
	ManualIntervention
)

func (n NextAction) String() string {
	switch n {
	case RetryImmediately:
		return "retry_immediately"
	case RetryWithDelay:
		return "retry_with_delay"
	case ManualIntervention:
		return "manual_intervention"
	default:
		return "unknown"
	}
}

// Outcome reports what the engine did about one classified failure.
type Outcome struct {
	Attempted bool
	Succeeded bool
	Next      NextAction
}

// Context carries the environment-provided paths recovery actions operate
// on. All paths are optional; actions that find their path empty or
// missing report no effect rather than failing the chain.
type Context struct {
	ServiceID      string
	MountPath      string
	SyncRoot       string
	ArchiveDir     string
	CredentialsDir string
	BackupDir      string
	CacheDir       string
	LogDir         string
}

// Action is a single idempotent remediation step. Run returns whether the
// action had an observed, verified effect; "command issued" is not enough.
// Resolving actions can fix the underlying failure, so a verified effect
// short-circuits the rest of the chain. Supportive actions only mitigate;
// the chain continues after them regardless of their result.
type Action interface {
	Name() string
	Resolving() bool
	Run(ctx context.Context, env Context, logger *slog.Logger) (bool, error)
}

// Engine executes the recovery action chain mapped to an error category.
// It never mutates circuit breaker state; callers act on the Outcome.
type Engine struct {
	actions map[string]Action
	logger  *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	e := &Engine{
		actions: make(map[string]Action),
		logger:  logger,
	}
	for _, a := range builtinActions() {
		e.Register(a)
	}
	return e
}

// Register adds or replaces an action implementation by name.
func (e *Engine) Register(a Action) {
	e.actions[a.Name()] = a
}

// Action returns the registered implementation for a name.
func (e *Engine) Action(name string) (Action, bool) {
	a, ok := e.actions[name]
	return a, ok
}

// Attempt runs the action chain for the category in order. An empty chain
// fails fast with manual_intervention: the engine never guesses a
// remediation for a category it has no mapping for. Unknown action names
// inside a chain are skipped; if nothing in the chain could run, the
// result is the same as an empty chain.
func (e *Engine) Attempt(ctx context.Context, serviceID string, category errclass.Category, env Context) Outcome {
	chain := policy.For(category).RecoveryActions
	if len(chain) == 0 {
		return Outcome{Next: ManualIntervention}
	}

	log := e.logger.With(
		slog.String("service", serviceID),
		slog.String("error_type", category.String()))

	attempted := false
	for _, name := range chain {
		action, ok := e.actions[name]
		if !ok {
			log.Warn("unknown recovery action in chain", slog.String("action", name))
			continue
		}

		if ctx.Err() != nil {
			log.Warn("recovery chain cancelled", slog.String("action", name))
			break
		}

		attempted = true
		effect, err := action.Run(ctx, env, log.With(slog.String("action", name)))
		if err != nil {
			// A broken action degrades to the next step, never crashes the cycle.
			log.Error("recovery action failed",
				slog.String("action", name),
				slog.Any("err", err))
			continue
		}

		if effect && action.Resolving() {
			log.Info("recovery action resolved the failure", slog.String("action", name))
			return Outcome{Attempted: true, Succeeded: true, Next: RetryImmediately}
		}
	}

	if attempted {
		return Outcome{Attempted: true, Next: RetryWithDelay}
	}
	return Outcome{Next: ManualIntervention}
}
