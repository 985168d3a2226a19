package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]EntityTemplate)
	registryMu sync.RWMutex
)

// Register adds an entity template to the registry.
// Panics if the key is already registered or the template is inconsistent.
func Register(tpl EntityTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[tpl.Key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", tpl.Key))
	}
	if err := checkTemplate(tpl); err != nil {
		panic(fmt.Sprintf("invalid entity template %s: %v", tpl.Key, err))
	}

	if tpl.Table == "" {
		tpl.Table = tpl.Key
	}

	registry[tpl.Key] = tpl
}

// checkTemplate enforces required, aliases, defaults and natural keys all
// name declared fields.
func checkTemplate(tpl EntityTemplate) error {
	if tpl.Key == "" {
		return fmt.Errorf("empty key")
	}
	if len(tpl.Fields) == 0 {
		return fmt.Errorf("no fields")
	}

	seen := make(map[string]bool, len(tpl.Fields))
	for _, f := range tpl.Fields {
		if seen[f] {
			return fmt.Errorf("field %q declared twice", f)
		}
		seen[f] = true
	}

	for _, f := range tpl.Required {
		if !seen[f] {
			return fmt.Errorf("required field %q is not a field", f)
		}
	}
	for f := range tpl.Aliases {
		if !seen[f] {
			return fmt.Errorf("alias entry %q is not a field", f)
		}
	}
	for f := range tpl.Defaults {
		if !seen[f] {
			return fmt.Errorf("default for %q is not a field", f)
		}
	}
	for _, f := range tpl.NaturalKeys {
		if !seen[f] {
			return fmt.Errorf("natural key %q is not a field", f)
		}
	}
	for f := range tpl.Normalizers {
		if !seen[f] {
			return fmt.Errorf("normalizer for %q is not a field", f)
		}
	}
	return nil
}

// Template returns the template registered under key.
// Returns an UnknownEntity error if none is registered.
func Template(key string) (EntityTemplate, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tpl, ok := registry[key]
	if !ok {
		return EntityTemplate{}, ErrUnknownEntity(key)
	}
	return tpl, nil
}

// All returns all registered templates sorted by key.
func All() []EntityTemplate {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityTemplate, 0, len(registry))
	for _, tpl := range registry {
		result = append(result, tpl)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns all registered entity keys, sorted.
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, tpl := range all {
		keys[i] = tpl.Key
	}
	return keys
}

// TemplateCount returns the number of registered templates.
func TemplateCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered templates.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]EntityTemplate)
}
