package metrics

import (
	"sync"
	"time"
)

// Metrics accumulates per-service sync cycle results for the lifetime of
// one process invocation.
type Metrics struct {
	mutex     sync.RWMutex
	outcomes  map[string]map[string]int64
	attempts  map[string]int64
	durations map[string][]time.Duration
	startTime time.Time
}

type Snapshot struct {
	TotalCycles int64                     `json:"total_cycles"`
	Uptime      time.Duration             `json:"uptime"`
	Services    map[string]ServiceMetrics `json:"services"`
}

type ServiceMetrics struct {
	Cycles      int64            `json:"cycles"`
	Attempts    int64            `json:"attempts"`
	Outcomes    map[string]int64 `json:"outcomes"`
	AvgDuration time.Duration    `json:"avg_duration"`
	MaxDuration time.Duration    `json:"max_duration"`
}

func New() *Metrics {
	return &Metrics{
		outcomes:  make(map[string]map[string]int64),
		attempts:  make(map[string]int64),
		durations: make(map[string][]time.Duration),
		startTime: time.Now(),
	}
}

// RecordCycle stores the result of one completed sync cycle.
func (m *Metrics) RecordCycle(service, outcome string, attempts int, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.outcomes[service] == nil {
		m.outcomes[service] = make(map[string]int64)
	}
	m.outcomes[service][outcome]++
	m.attempts[service] += int64(attempts)
	m.durations[service] = append(m.durations[service], duration)
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:   time.Since(m.startTime),
		Services: make(map[string]ServiceMetrics),
	}

	for service, outcomes := range m.outcomes {
		sm := ServiceMetrics{
			Attempts: m.attempts[service],
			Outcomes: make(map[string]int64, len(outcomes)),
		}
		for outcome, count := range outcomes {
			sm.Outcomes[outcome] = count
			sm.Cycles += count
		}

		durations := m.durations[service]
		if len(durations) > 0 {
			var total, max time.Duration
			for _, d := range durations {
				total += d
				if d > max {
					max = d
				}
			}
			sm.AvgDuration = total / time.Duration(len(durations))
			sm.MaxDuration = max
		}

		snap.TotalCycles += sm.Cycles
		snap.Services[service] = sm
	}

	return snap
}
