package process

import "fmt"

// IdentityError reports a top-level, non-blank entity that lacks a
// durable identifier and therefore cannot be addressed canonically
type IdentityError struct {
	EntityID string
	Type     string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("entity %q (%s) has no durable identifier and is not blank-identified", e.EntityID, e.Type)
}

// RangeError reports an embedded object whose declared type is outside
// the allowed range of the property holding it
type RangeError struct {
	EntityID string
	Property string
	Position int
	Type     string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("entity %q property %q value %d: type %q is outside the property's declared range",
		e.EntityID, e.Property, e.Position, e.Type)
}

// FetchError reports a remote reference that could not be dereferenced
// into a registrable entity. The reference is left unresolved; the run
// continues.
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }
