package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrPagingMismatch is wrapped by DecodeError when a response reports a
// different current_page than the one requested.
var ErrPagingMismatch = errors.New("current_page does not match requested page")

// ErrorKind labels errors for metrics and logs.
type ErrorKind string

const (
	// ErrorKindTransport is a request that never produced a response.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindStatus is a non-2xx response.
	ErrorKindStatus ErrorKind = "status"

	// ErrorKindDecode is a malformed body or envelope.
	ErrorKindDecode ErrorKind = "decode"
)

// RequestFailedError is returned when a page request fails: either the
// transport failed (StatusCode 0, Err set) or the provider answered with a
// non-2xx status.
type RequestFailedError struct {
	Endpoint   string
	StatusCode int
	Query      map[string]string
	Err        error
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed using %s: %v", e.Endpoint, formatQuery(e.Query), e.Err)
	}
	return fmt.Sprintf("request %s failed using %s, status_code: %d", e.Endpoint, formatQuery(e.Query), e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// Kind classifies the failure.
func (e *RequestFailedError) Kind() ErrorKind {
	if e.StatusCode == 0 {
		return ErrorKindTransport
	}
	return ErrorKindStatus
}

// DecodeError is returned when a response body is not JSON or lacks the
// data.items / data.paging envelope.
type DecodeError struct {
	Endpoint string
	Page     int
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s page %d: %s: %v", e.Endpoint, e.Page, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s page %d: %s", e.Endpoint, e.Page, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// formatQuery renders parameters deterministically for error messages.
// The API key travels in headers and never appears here.
func formatQuery(q map[string]string) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, q[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
