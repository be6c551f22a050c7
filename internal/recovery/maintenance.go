package recovery

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/angeloszaimis/syncguard/internal/mounthealth"
)

type verifyMount struct{}

func (a *verifyMount) Name() string { return "verify_mount" }

// Supportive: observing the mount does not fix it, but the before/after
// assessment in the logs tells the operator whether the provider daemon
// has the path up at all.
func (a *verifyMount) Resolving() bool { return false }

func (a *verifyMount) Run(_ context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.MountPath == "" {
		return false, nil
	}

	if err := mounthealth.Probe(env.MountPath); err != nil {
		logger.Warn("mount is not available", slog.Any("err", err))
		return false, nil
	}
	if err := mounthealth.Writable(env.MountPath); err != nil {
		logger.Warn("mount is present but not writable", slog.Any("err", err))
		return false, nil
	}

	logger.Info("mount verified", slog.String("mount", env.MountPath))
	return true, nil
}

const compressAfter = 7 * 24 * time.Hour

type compressLogs struct{}

func (a *compressLogs) Name() string    { return "compress_logs" }
func (a *compressLogs) Resolving() bool { return false }

func (a *compressLogs) Run(ctx context.Context, env Context, logger *slog.Logger) (bool, error) {
	if env.LogDir == "" {
		return false, nil
	}

	matches, err := filepath.Glob(filepath.Join(env.LogDir, "*.log"))
	if err != nil {
		return false, err
	}

	compressed := 0
	for _, path := range matches {
		if ctx.Err() != nil {
			break
		}
		info, err := os.Stat(path)
		if err != nil || !olderThan(info, compressAfter) {
			continue
		}
		if err := gzipFile(path); err != nil {
			logger.Warn("failed to compress log",
				slog.String("file", path),
				slog.Any("err", err))
			continue
		}
		compressed++
	}

	if compressed > 0 {
		logger.Info("compressed aged logs", slog.Int("count", compressed))
	}
	return compressed > 0, nil
}

// gzipFile writes path.gz and removes the original only after the archive
// is verified on disk.
func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path + ".gz")
		return err
	}

	if _, err := os.Stat(path + ".gz"); err != nil {
		return err
	}
	return os.Remove(path)
}
