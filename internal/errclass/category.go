package errclass

import "fmt"

type Category int

const (
	Network Category = iota // Connectivity, DNS, remote endpoint unreachable
	Authentication
	Conflict
	Quota
	Configuration
	Transient
	Permanent
	PartialSync
)

func (c Category) String() string {
	switch c {
	case Network:
		return "network"
	case Authentication:
		return "authentication"
	case Conflict:
		return "conflict"
	case Quota:
		return "quota"
	case Configuration:
		return "configuration"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case PartialSync:
		return "partial_sync"
	default:
		return "unknown"
	}
}

// Parse maps a category name back to its Category. Unknown names map to
// Transient so that records written by a newer version still load.
func Parse(name string) Category {
	switch name {
	case "network":
		return Network
	case "authentication":
		return Authentication
	case "conflict":
		return Conflict
	case "quota":
		return Quota
	case "configuration":
		return Configuration
	case "transient":
		return Transient
	case "permanent":
		return Permanent
	case "partial_sync":
		return PartialSync
	default:
		return Transient
	}
}

func (c Category) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *Category) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return fmt.Errorf("error category must be a string: %w", err)
	}
	*c = Parse(name)
	return nil
}
