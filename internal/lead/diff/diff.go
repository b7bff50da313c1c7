// Package diff compares a lead's stored field values with a proposal and
// reports only the fields that actually change.
package diff

import "giyus/internal/lead/fields"

// Change is one field whose normalized value differs.
type Change struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Engine orders its output by the field registry so results are
// deterministic regardless of map iteration.
type Engine struct {
	registry *fields.Registry
}

func New(registry *fields.Registry) *Engine {
	return &Engine{registry: registry}
}

// Diff returns the fields in proposed whose value differs from current,
// skipping any field in excluded. Absent values compare as "". Both maps
// hold stored (already serialized) values. Diff(a, a, nil) is always empty.
func (e *Engine) Diff(current, proposed map[string]string, excluded map[string]bool) []Change {
	names := make([]string, 0, len(proposed))
	for name := range proposed {
		names = append(names, name)
	}

	var changes []Change
	for _, name := range e.registry.Order(names) {
		if excluded[name] {
			continue
		}
		oldValue := current[name]
		newValue := proposed[name]
		if oldValue == newValue {
			continue
		}
		changes = append(changes, Change{Field: name, OldValue: oldValue, NewValue: newValue})
	}
	return changes
}
