package recovery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Name fragments cloud providers use when they duplicate a file instead of
// merging it.
var conflictMarkers = []string{
	"conflicted copy",
	"conflict",
	".sync-conflict-",
}

type backupConflicts struct{}

func (a *backupConflicts) Name() string { return "backup_conflicts" }

// Supportive: copies protect the user's data but do not resolve the
// underlying conflict, so the chain always continues.
func (a *backupConflicts) Resolving() bool { return false }

func (a *backupConflicts) Run(ctx context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.MountPath == "" || env.BackupDir == "" {
		return false, nil
	}

	var conflicts []string
	err := filepath.WalkDir(env.MountPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The provider's own daemon mutates this tree concurrently;
			// vanished entries are expected.
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}

		lower := strings.ToLower(d.Name())
		for _, marker := range conflictMarkers {
			if strings.Contains(lower, marker) {
				conflicts = append(conflicts, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if len(conflicts) == 0 {
		logger.Debug("no conflicted copies found")
		return false, nil
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	copied := 0
	for _, src := range conflicts {
		rel, err := filepath.Rel(env.MountPath, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(env.BackupDir, stamp, rel)
		if err := copyFile(src, dst); err != nil {
			logger.Warn("failed to back up conflicted copy",
				slog.String("file", src),
				slog.Any("err", err))
			continue
		}
		if _, err := os.Stat(dst); err == nil {
			copied++
		}
	}

	logger.Info("backed up conflicted copies",
		slog.Int("found", len(conflicts)),
		slog.Int("copied", copied),
		slog.String("backup_dir", filepath.Join(env.BackupDir, stamp)))

	return copied == len(conflicts), nil
}
