package mounthealth

import (
	"fmt"
	"os"
	"path/filepath"
)

// Probe verifies that a cloud mount path exists and is a directory. Cloud
// provider daemons unmount and remount these paths at will, so the result
// is only a point-in-time observation.
func Probe(path string) error {
	if path == "" {
		return fmt.Errorf("mount path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("mount path unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mount path %s is not a directory", path)
	}
	return nil
}

// Writable verifies write access to the mount by creating and removing a
// probe file. A read-only remount is a common failure mode after a cloud
// provider error.
func Writable(path string) error {
	if err := Probe(path); err != nil {
		return err
	}

	probe, err := os.CreateTemp(path, ".syncguard-probe-*")
	if err != nil {
		return fmt.Errorf("mount not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()

	if err := os.Remove(name); err != nil {
		return fmt.Errorf("removing probe file %s: %w", filepath.Base(name), err)
	}
	return nil
}
