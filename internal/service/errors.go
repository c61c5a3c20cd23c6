package service

import (
	"errors"
	"sort"
	"strings"
)

// Request-scoped failure kinds surfaced to the transport layer. None of these
// are retried; they describe the request, not the system.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	// ErrNotFound covers both a record that does not exist and one that
	// belongs to another user. The two cases must stay indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrCategoryNotFound is returned for a category reference that does not
	// resolve under the caller's ownership. Another user's category id gets
	// the same answer as a nonexistent one.
	ErrCategoryNotFound = errors.New("category not found")
)

// ValidationError collects per-field problems with a write request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// validator accumulates field errors; the first message per field wins.
type validator struct {
	fields map[string]string
}

func newValidator() *validator {
	return &validator{fields: make(map[string]string)}
}

func (v *validator) check(cond bool, field, msg string) {
	if cond {
		return
	}
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
