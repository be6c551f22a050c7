package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
)

// FileStore persists circuit records in a single human-inspectable YAML
// file, keyed by service id. Writes go to a temp file in the same
// directory followed by an atomic rename, and every read-modify-write
// cycle holds an advisory flock so overlapping scheduled and manual
// invocations cannot interleave.
type FileStore struct {
	path     string
	lockPath string
	logger   *slog.Logger
}

const writeAttempts = 3

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
	}, nil
}

func (s *FileStore) Read(serviceID string) (circuitbreaker.Record, error) {
	unlock, err := s.lock(unix.LOCK_SH)
	if err != nil {
		return circuitbreaker.Record{}, err
	}
	defer unlock()

	records := s.load()
	if rec, ok := records[serviceID]; ok {
		return rec, nil
	}
	return circuitbreaker.NewRecord(serviceID), nil
}

func (s *FileStore) Update(serviceID string, fn func(circuitbreaker.Record) circuitbreaker.Record) (circuitbreaker.Record, error) {
	unlock, err := s.lock(unix.LOCK_EX)
	if err != nil {
		return circuitbreaker.Record{}, err
	}
	defer unlock()

	records := s.load()
	rec, ok := records[serviceID]
	if !ok {
		rec = circuitbreaker.NewRecord(serviceID)
	}

	rec = fn(rec)
	rec.ServiceID = serviceID
	records[serviceID] = rec

	if err := s.save(records); err != nil {
		return circuitbreaker.Record{}, err
	}
	return rec, nil
}

func (s *FileStore) Delete(serviceID string) error {
	unlock, err := s.lock(unix.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	records := s.load()
	if _, ok := records[serviceID]; !ok {
		return nil
	}
	delete(records, serviceID)
	return s.save(records)
}

func (s *FileStore) List() ([]circuitbreaker.Record, error) {
	unlock, err := s.lock(unix.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records := s.load()

	out := make([]circuitbreaker.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ServiceID < out[j].ServiceID
	})
	return out, nil
}

// load reads the state file and fails closed: a missing or corrupted file
// yields an empty map, never an error, so a damaged store cannot block
// legitimate operations. The next successful write corrects it.
func (s *FileStore) load() map[string]circuitbreaker.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("state file unreadable, treating as empty",
				slog.String("path", s.path),
				slog.Any("err", err))
		}
		return map[string]circuitbreaker.Record{}
	}

	var records map[string]circuitbreaker.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		s.logger.Warn("state file corrupted, treating as empty",
			slog.String("path", s.path),
			slog.Any("err", err))
		return map[string]circuitbreaker.Record{}
	}
	if records == nil {
		records = map[string]circuitbreaker.Record{}
	}

	for id, rec := range records {
		if rec.ServiceID == "" {
			rec.ServiceID = id
			records[id] = rec
		}
	}
	return records
}

func (s *FileStore) save(records map[string]circuitbreaker.Record) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding state file: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if lastErr = s.writeAtomic(data); lastErr == nil {
			return nil
		}
		s.logger.Warn("state file write failed",
			slog.Int("attempt", attempt),
			slog.Any("err", lastErr))
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return fmt.Errorf("writing state file after %d attempts: %w", writeAttempts, lastErr)
}

func (s *FileStore) writeAtomic(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// lock takes an advisory lock on a sidecar lock file and returns the
// release function. The state file itself is never locked: it is replaced
// wholesale by rename, so a lock on it would not survive a write.
func (s *FileStore) lock(how int) (func(), error) {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking state file: %w", err)
	}

	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
