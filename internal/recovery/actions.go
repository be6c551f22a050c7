package recovery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

func builtinActions() []Action {
	return []Action{
		&refreshCredentials{},
		&validatePermissions{},
		&resetArchives{},
		&cleanupSpace{},
		&backupConflicts{},
		&clearStaleLocks{},
		&verifyMount{},
		&compressLogs{},
	}
}

// olderThan reports whether the file was last modified before the cutoff.
func olderThan(info os.FileInfo, age time.Duration) bool {
	return time.Since(info.ModTime()) > age
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// verifyAbsent confirms files were actually removed, not just that the
// remove calls returned.
func verifyAbsent(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%s still present", p)
		}
	}
	return nil
}
