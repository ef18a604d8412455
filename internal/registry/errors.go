package registry

import (
	"errors"
	"fmt"
)

// ParseError reports a registry document missing a required value or
// holding one that cannot be interpreted.
type ParseError struct {
	// Entry is the index in all_registry_entry, or -1 for registry-level fields.
	Entry int
	// Field is the path of the offending key, relative to the entry or registry.
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Entry < 0 {
		return fmt.Sprintf("registry: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("registry: entry %d: %s: %v", e.Entry, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissing is wrapped by ParseErrors for absent required keys.
var ErrMissing = errors.New("missing")

func missing(entry int, field string) *ParseError {
	return &ParseError{Entry: entry, Field: field, Err: ErrMissing}
}
