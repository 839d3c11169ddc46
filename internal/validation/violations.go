// Package validation turns untyped input into typed payloads and checks them
// against an explicit per-field rule table.
package validation

import (
	"maps"
	"slices"
)

// Violations groups violation messages by field name. Messages within a field
// keep the order in which the rules were declared.
type Violations map[string][]string

// Add appends msg to the messages recorded for field.
func (v Violations) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Empty reports whether no violation has been recorded.
func (v Violations) Empty() bool {
	return len(v) == 0
}

// Fields returns the names of the fields with at least one violation, sorted.
func (v Violations) Fields() []string {
	return slices.Sorted(maps.Keys(v))
}

// Clone returns a deep copy.
func (v Violations) Clone() Violations {
	if v == nil {
		return nil
	}
	out := make(Violations, len(v))
	for k, msgs := range v {
		out[k] = slices.Clone(msgs)
	}
	return out
}
