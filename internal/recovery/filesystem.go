package recovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Leftovers from interrupted sync runs.
var partialArchivePatterns = []string{"*.partial", "*.part", "*.tmp"}

// Lock files must be older than this before they count as stale; a live
// sync run may legitimately hold one.
const staleLockAge = time.Hour

// cleanupSpace considers its job done when at least this much is free.
const minFreeBytes = 500 * 1024 * 1024

type resetArchives struct{}

func (a *resetArchives) Name() string    { return "reset_archives" }
func (a *resetArchives) Resolving() bool { return true }

// Run quarantines partial archive files left behind by interrupted runs so
// the next sync starts from a clean slate. Tolerates a missing archive
// directory and an empty one: no partials means no verified effect, not an
// error.
func (a *resetArchives) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.ArchiveDir == "" {
		return false, nil
	}
	if _, err := os.Stat(env.ArchiveDir); err != nil {
		logger.Debug("archive directory absent", slog.String("dir", env.ArchiveDir))
		return false, nil
	}

	var partials []string
	for _, pattern := range partialArchivePatterns {
		matches, err := filepath.Glob(filepath.Join(env.ArchiveDir, pattern))
		if err != nil {
			continue
		}
		partials = append(partials, matches...)
	}

	if len(partials) == 0 {
		logger.Debug("no partial archives to reset")
		return false, nil
	}

	quarantine := filepath.Join(env.ArchiveDir, "quarantine", time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(quarantine, 0o755); err != nil {
		return false, err
	}

	for _, path := range partials {
		if err := os.Rename(path, filepath.Join(quarantine, filepath.Base(path))); err != nil {
			return false, err
		}
	}

	if err := verifyAbsent(partials); err != nil {
		return false, err
	}

	logger.Info("quarantined partial archives",
		slog.Int("count", len(partials)),
		slog.String("quarantine", quarantine))
	return true, nil
}

type clearStaleLocks struct{}

func (a *clearStaleLocks) Name() string    { return "clear_stale_locks" }
func (a *clearStaleLocks) Resolving() bool { return true }

func (a *clearStaleLocks) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.MountPath == "" {
		return false, nil
	}

	var stale []string
	for _, pattern := range []string{".~lock.*", "*.lock", ".#*"} {
		matches, err := filepath.Glob(filepath.Join(env.MountPath, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if olderThan(info, staleLockAge) {
				stale = append(stale, path)
			}
		}
	}

	if len(stale) == 0 {
		logger.Debug("no stale locks found")
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

	logger.Info("removed stale lock files", slog.Int("count", len(stale)))
	return true, nil
}

type cleanupSpace struct{}

func (a *cleanupSpace) Name() string    { return "cleanup_space" }
func (a *cleanupSpace) Resolving() bool { return true }

// Run drops aged cache files, then verifies the effect by measuring free
// space instead of trusting the removals alone.
func (a *cleanupSpace) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	removed := 0
	if env.CacheDir != "" {
		entries, err := os.ReadDir(env.CacheDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				if olderThan(info, 7*24*time.Hour) {
					if err := os.Remove(filepath.Join(env.CacheDir, entry.Name())); err == nil {
						removed++
					}
				}
			}
		}
	}

	target := env.SyncRoot
	if target == "" {
		target = env.CacheDir
	}
	if target == "" {
		return false, nil
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(target, &stat); err != nil {
		return false, err
	}
	free := stat.Bavail * uint64(stat.Bsize)

	logger.Info("space cleanup finished",
		slog.Int("removed", removed),
		slog.Uint64("free_bytes", free))

	return free >= minFreeBytes, nil
}
