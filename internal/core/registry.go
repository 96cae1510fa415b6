package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]*ImportKind)
	registryMu sync.RWMutex
)

// Register adds an import kind to the registry.
// Panics if the code is empty or already registered.
func Register(kind ImportKind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if strings.TrimSpace(kind.Code) == "" {
		panic("import kind registered without a code")
	}
	if _, exists := registry[kind.Code]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", kind.Code))
	}

	if kind.Label == "" {
		kind.Label = kind.Code
	}

	registry[kind.Code] = &kind
}

// Get returns an import kind by code.
// Returns false if not found.
func Get(code string) (*ImportKind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kind, ok := registry[code]
	return kind, ok
}

// Lookup is Get returning ErrUnknownKind for missing codes.
func Lookup(code string) (*ImportKind, error) {
	kind, ok := Get(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, code)
	}
	return kind, nil
}

// All returns all registered import kinds sorted by code.
func All() []*ImportKind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*ImportKind, 0, len(registry))
	for _, kind := range registry {
		result = append(result, kind)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})

	return result
}

// Select resolves codes to kinds in the given order. An empty list selects all.
func Select(codes []string) ([]*ImportKind, error) {
	if len(codes) == 0 {
		return All(), nil
	}
	kinds := make([]*ImportKind, 0, len(codes))
	for _, code := range codes {
		kind, err := Lookup(code)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// KindCount returns the number of registered import kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered import kinds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*ImportKind)
}
