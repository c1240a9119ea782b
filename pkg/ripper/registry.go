package ripper

import (
	"fmt"
	"sort"
	"sync"
)

// Runner is a site ripper ready to start
type Runner interface {
	Run() error
}

// Factory builds a site ripper whose chain ends at c
type Factory func(c *Controller) (Runner, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a site ripper available under name. It panics if name is
// empty, factory is nil or name is already registered.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" {
		panic("ripper: Register with empty name")
	}
	if factory == nil {
		panic("ripper: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("ripper: Register called twice for %q", name))
	}
	registry[name] = factory
}

// Lookup returns the factory registered under name
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	return f, ok
}

// Registered returns the sorted names of all registered rippers
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
