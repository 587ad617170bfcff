package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]TargetDefinition)
	registryMu sync.RWMutex
)

// Register adds a target definition to the registry.
// Panics if a target with the same key is already registered.
func Register(def TargetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("target already registered: %s", def.Info.Key))
	}

	if len(def.Columns) == 0 {
		def.Columns = make([]string, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			def.Columns[i] = spec.Column()
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a target definition by key.
func Get(key string) (TargetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with a configuration error for unknown keys.
func Lookup(key string) (TargetDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TargetDefinition{}, configErrorf("Target %q was not found", key)
	}
	return def, nil
}

// All returns all registered targets sorted by key.
func All() []TargetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TargetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// Clear removes all registered targets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TargetDefinition)
}
