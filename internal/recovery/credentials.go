package recovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/angeloszaimis/syncguard/internal/mounthealth"
)

// Cached session state that cloud sync tools rebuild on their next run.
// Removing an expired cache forces a fresh authentication instead of
// endless retries against a dead token.
var credentialCachePatterns = []string{"*.token", "*.session", "*.cookies"}

type refreshCredentials struct{}

func (a *refreshCredentials) Name() string    { return "refresh_credentials" }
func (a *refreshCredentials) Resolving() bool { return true }

func (a *refreshCredentials) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.CredentialsDir == "" {
		logger.Debug("no credentials directory configured")
		return false, nil
	}

	var stale []string
	for _, pattern := range credentialCachePatterns {
		matches, err := filepath.Glob(filepath.Join(env.CredentialsDir, pattern))
		if err != nil {
			continue
		}
		stale = append(stale, matches...)
	}

	logger.Info("refreshing credentials",
		slog.String("dir", env.CredentialsDir),
		slog.Int("cached_sessions", len(stale)))

	if len(stale) == 0 {
		return false, nil
	}

	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, err
		}
	}

	if err := verifyAbsent(stale); err != nil {
		return false, err
	}

	logger.Info("cleared cached sessions, next attempt re-authenticates",
		slog.Int("removed", len(stale)))
	return true, nil
}

type validatePermissions struct{}

func (a *validatePermissions) Name() string    { return "validate_permissions" }
func (a *validatePermissions) Resolving() bool { return true }

func (a *validatePermissions) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.MountPath == "" {
		return false, nil
	}

	if err := mounthealth.Writable(env.MountPath); err != nil {
		logger.Warn("mount failed the write probe", slog.Any("err", err))
		return false, nil
	}

	logger.Info("mount passed the write probe", slog.String("mount", env.MountPath))
	return true, nil
}
