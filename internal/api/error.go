package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a backend-reported failure: a non-2xx response whose body
// carried an "error" payload. The payload may be a plain string or a
// field-keyed object (serializer-style validation errors).
type Error struct {
	StatusCode int
	raw        json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: backend error (status %d): %s", e.StatusCode, e.Message())
}

// Message extracts a human-readable message: the string value when the
// payload is a string, the compact literal otherwise.
func (e *Error) Message() string {
	if len(e.raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.raw, &s); err == nil {
		return s
	}
	return string(e.raw)
}

// HasField reports whether the payload is an object carrying the named
// field, e.g. an email-uniqueness conflict keyed by "email".
func (e *Error) HasField(name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.raw, &fields); err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}

// AsError unwraps err into a backend *Error, or nil for transport and
// decode failures.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
