package cageots

import (
	"fmt"
)

type AuthReason int

const (
	AUTH_UNKNOWN AuthReason = iota
	AUTH_MISSING_EMAIL
	AUTH_INVALID_EMAIL
	AUTH_MISSING_PASSWORD
	AUTH_INVALID_PASSWORD
	AUTH_FAILED
)

func (r AuthReason) String() string {
	switch r {
	case AUTH_MISSING_EMAIL:
		return "missing email"
	case AUTH_INVALID_EMAIL:
		return "invalid email"
	case AUTH_MISSING_PASSWORD:
		return "missing password"
	case AUTH_INVALID_PASSWORD:
		return "invalid password"
	case AUTH_FAILED:
		return "authentication failed"
	}
	return "unknown error"
}

// AuthError is returned when the site answered the login form but did not
// accept the credentials.
type AuthError struct {
	Reason AuthReason
	// Marker is the text found in the login response, empty for AUTH_UNKNOWN.
	Marker string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login rejected: %s", e.Reason)
}

// TransportError is returned when the site could not be reached or answered
// with an unusable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FieldError describes a single row field that could not be normalized.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s (%q): %s", e.Field, e.Value, e.Err.Error())
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
