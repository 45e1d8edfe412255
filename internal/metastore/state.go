package metastore

import (
	"github.com/raphi011/ovl/internal/registry"
)

// State is the lifecycle state of a repository, derived once per operation.
type State int

const (
	// Unknown repositories have neither an origin record nor a store.
	Unknown State = iota
	// Registered repositories have an origin record but no store.
	Registered
	// Cloned repositories have a metadata store.
	Cloned
)

func (s State) String() string {
	switch s {
	case Registered:
		return "registered"
	case Cloned:
		return "cloned"
	default:
		return "unknown"
	}
}

// State derives the state of name from its store and registry record.
func (l Layout) State(name string, reg *registry.Registry) (State, error) {
	exists, err := l.Exists(name)
	if err != nil {
		return Unknown, err
	}
	if exists {
		return Cloned, nil
	}
	_, ok, err := reg.Origin(name)
	if err != nil {
		return Unknown, err
	}
	if ok {
		return Registered, nil
	}
	return Unknown, nil
}
