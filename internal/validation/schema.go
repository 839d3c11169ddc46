package validation

import (
	"context"
	"fmt"
)

type field[P any] struct {
	name  string
	get   func(*P) any
	rules []Rule
}

// Schema is the ordered rule table for payload type P.
type Schema[P any] struct {
	fields []field[P]
}

// NewSchema creates an empty schema for P.
func NewSchema[P any]() *Schema[P] {
	return &Schema[P]{}
}

// Field declares the rules for one payload field. name is the key reported in
// Violations; get reads the field from a payload.
func (s *Schema[P]) Field(name string, get func(*P) any, rules ...Rule) *Schema[P] {
	s.fields = append(s.fields, field[P]{name: name, get: get, rules: rules})
	return s
}

// Fields returns the declared field names in declaration order.
func (s *Schema[P]) Fields() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// Validate runs every rule of every field against p and collects all violations.
// It returns an error only when a rule could not be evaluated; the violations
// gathered so far are discarded in that case.
func (s *Schema[P]) Validate(ctx context.Context, p *P) (Violations, error) {
	violations := Violations{}
	if s == nil {
		return violations, nil
	}
	for _, f := range s.fields {
		value := f.get(p)
		for _, rule := range f.rules {
			msg, err := rule(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.name, err)
			}
			if msg != "" {
				violations.Add(f.name, msg)
			}
		}
	}
	return violations, nil
}
