package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/angeloszaimis/syncguard/internal/errclass"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking sync attempts
	StateHalfOpen              // Testing with one probe
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

func ParseState(name string) (State, error) {
	switch name {
	case "closed":
		return StateClosed, nil
	case "open":
		return StateOpen, nil
	case "half_open":
		return StateHalfOpen, nil
	default:
		return StateClosed, fmt.Errorf("unknown circuit state %q", name)
	}
}

func (s State) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *State) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return fmt.Errorf("circuit state must be a string: %w", err)
	}
	parsed, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Record is the persisted circuit state for one synchronized service.
type Record struct {
	ServiceID       string            `yaml:"service_id"`
	State           State             `yaml:"state"`
	FailureCount    int               `yaml:"failure_count"`
	LastFailureTime *time.Time        `yaml:"last_failure_time,omitempty"`
	ErrorType       errclass.Category `yaml:"error_type"`
	LastUpdated     time.Time         `yaml:"last_updated"`
}

// NewRecord returns the default record for a service that has never
// failed: closed, zero failures.
func NewRecord(serviceID string) Record {
	return Record{
		ServiceID: serviceID,
		State:     StateClosed,
		ErrorType: errclass.Transient,
	}
}

// Store is the persistence abstraction behind the breaker. Implementations
// must make Update a single atomic read-modify-write with respect to other
// processes operating on the same store, and Read must fail closed: a
// missing or corrupted record loads as the default closed record.
type Store interface {
	Read(serviceID string) (Record, error)
	Update(serviceID string, fn func(Record) Record) (Record, error)
	Delete(serviceID string) error
	List() ([]Record, error)
}
