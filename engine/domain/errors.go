package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Each failure condition has exactly one sentinel so callers
// can map them to a presentation without ambiguity.
var (
	ErrInvalidInstance = errors.New("invalid instance")
	ErrInvalidParam    = errors.New("invalid parameter")
	ErrNetwork         = errors.New("network error")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrDecode          = errors.New("decode error")
	ErrUpstream        = errors.New("upstream error")
	ErrCommentNotFound = errors.New("comment not found")
)

// MaxBodyExcerpt caps how much of a failed upstream body is kept for diagnostics.
const MaxBodyExcerpt = 512

// ParamError wraps ErrInvalidParam with the offending field.
type ParamError struct {
	Field string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s (value=%q)", ErrInvalidParam, e.Field, e.Value)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParam }

// NewParamError creates a ParamError.
func NewParamError(field, value string) *ParamError {
	return &ParamError{Field: field, Value: value}
}

// UpstreamError is a non-2xx answer from the remote instance.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrUpstream, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// NewUpstreamError creates an UpstreamError, truncating body to MaxBodyExcerpt bytes.
func NewUpstreamError(status int, body []byte) *UpstreamError {
	if len(body) > MaxBodyExcerpt {
		body = body[:MaxBodyExcerpt]
	}
	return &UpstreamError{Status: status, Body: string(body)}
}

// DecodeError reports a structurally invalid payload or a missing required field.
type DecodeError struct {
	Entity string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := ErrDecode.Error() + ": " + e.Entity
	if e.Field != "" {
		msg += "." + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// NewDecodeError creates a DecodeError.
func NewDecodeError(entity, field string, err error) *DecodeError {
	return &DecodeError{Entity: entity, Field: field, Err: err}
}

// NetworkError wraps a transport failure or timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", ErrNetwork, e.Err) }

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }
