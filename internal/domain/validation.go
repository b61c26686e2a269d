package domain

import (
	"sort"
	"strings"
)

// ValidationError carries per-field messages, either from local form
// rules or decoded from an API 422 body.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func required(v *ValidationError, field, value, message string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, message)
	}
}
