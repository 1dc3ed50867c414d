package environment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Settings are the construction parameters passed to a Maker
type Settings struct {
	Seed uint64

	// Address of an environment server, for remote environments
	Address string

	// ObservationShape overrides the observation shape reported by
	// environments which cannot infer it themselves
	ObservationShape []int
}

// Option configures the Settings passed to a Maker
type Option func(*Settings)

// WithAddress sets the address of a remote environment server
func WithAddress(addr string) Option {
	return func(s *Settings) { s.Address = addr }
}

// WithObservationShape overrides the observation shape
func WithObservationShape(shape []int) Option {
	return func(s *Settings) {
		s.ObservationShape = append([]int{}, shape...)
	}
}

// Maker creates a new Environment
type Maker func(Settings) (Environment, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Maker)
)

// Register makes an Environment available by the identifier id. Register
// is meant to be called from the init function of the package that
// implements the Environment and panics if called twice with the same
// id or with a nil Maker.
func Register(id string, maker Maker) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if maker == nil {
		panic("environment: Register maker is nil")
	}
	if _, dup := registry[id]; dup {
		panic(fmt.Sprintf("environment: Register called twice for %q", id))
	}
	registry[id] = maker
}

// Make creates the Environment registered as id, seeded with seed. An
// unknown id results in a *ConfigurationError.
func Make(id string, seed uint64, opts ...Option) (Environment, error) {
	registryMu.RLock()
	maker, ok := registry[id]
	registryMu.RUnlock()

	if !ok {
		return nil, NewConfigurationError("make",
			"unknown environment %q (registered: %v)", id, IDs())
	}

	settings := Settings{Seed: seed}
	for _, opt := range opts {
		opt(&settings)
	}

	env, err := maker(settings)
	if err != nil {
		return nil, errors.Wrapf(err, "make %v", id)
	}
	return env, nil
}

// Registered returns whether an Environment is registered as id
func Registered(id string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[id]
	return ok
}

// IDs returns the sorted identifiers of all registered Environments
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
