package syncexec

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Entries kept per service; older history has no bearing on the adaptive
// timeout.
const journalDepth = 20

// Entry is one recorded sync run.
type Entry struct {
	StartedAt       time.Time `yaml:"started_at"`
	DurationSeconds float64   `yaml:"duration_seconds"`
	ExitStatus      int       `yaml:"exit_status"`
	TimedOut        bool      `yaml:"timed_out"`
}

// Journal keeps a small per-service run history next to the state store.
// It is strictly best-effort: journal I/O failures are logged and ignored,
// never surfaced to a sync cycle.
type Journal struct {
	mutex  sync.Mutex
	path   string
	logger *slog.Logger
}

func NewJournal(path string, logger *slog.Logger) *Journal {
	return &Journal{
		path:   path,
		logger: logger,
	}
}

func (j *Journal) Record(serviceID string, entry Entry) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	history := j.load()
	entries := append(history[serviceID], entry)
	if len(entries) > journalDepth {
		entries = entries[len(entries)-journalDepth:]
	}
	history[serviceID] = entries

	data, err := yaml.Marshal(history)
	if err != nil {
		j.logger.Warn("encoding run journal", slog.Any("err", err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		j.logger.Warn("creating journal directory", slog.Any("err", err))
		return
	}
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		j.logger.Warn("writing run journal", slog.Any("err", err))
	}
}

// Last returns the most recent entry for a service. ok is false when the
// service has never run.
func (j *Journal) Last(serviceID string) (Entry, bool) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	entries := j.load()[serviceID]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

func (j *Journal) load() map[string][]Entry {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return map[string][]Entry{}
	}

	var history map[string][]Entry
	if err := yaml.Unmarshal(data, &history); err != nil {
		j.logger.Warn("run journal corrupted, starting fresh", slog.Any("err", err))
		return map[string][]Entry{}
	}
	if history == nil {
		history = map[string][]Entry{}
	}
	return history
}
