package store

import (
	"sort"
	"sync"

	"github.com/angeloszaimis/syncguard/internal/circuitbreaker"
)

// MemoryStore is an in-process Store used by tests and dry runs. Same
// semantics as FileStore minus persistence.
type MemoryStore struct {
	mutex   sync.Mutex
	records map[string]circuitbreaker.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]circuitbreaker.Record),
	}
}

func (s *MemoryStore) Read(serviceID string) (circuitbreaker.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if rec, ok := s.records[serviceID]; ok {
		return rec, nil
	}
	return circuitbreaker.NewRecord(serviceID), nil
}

func (s *MemoryStore) Update(serviceID string, fn func(circuitbreaker.Record) circuitbreaker.Record) (circuitbreaker.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[serviceID]
	if !ok {
		rec = circuitbreaker.NewRecord(serviceID)
	}
	rec = fn(rec)
	rec.ServiceID = serviceID
	s.records[serviceID] = rec
	return rec, nil
}

func (s *MemoryStore) Delete(serviceID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.records, serviceID)
	return nil
}

func (s *MemoryStore) List() ([]circuitbreaker.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]circuitbreaker.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ServiceID < out[j].ServiceID
	})
	return out, nil
}
