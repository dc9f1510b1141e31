package errors

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[int]*Errno)
)

// Register records an Errno in the global registry and returns it.
// Registering the same code twice is a programming error and panics.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errors: code %d already registered as %q", e.Code, existing.MessageEN))
	}
	registry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for a code, or nil.
func Lookup(code int) *Errno {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[code]
}

// GetAllRegistered returns a snapshot of all registered errors.
func GetAllRegistered() map[int]*Errno {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make(map[int]*Errno, len(registry))
	for code, e := range registry {
		out[code] = e
	}
	return out
}
