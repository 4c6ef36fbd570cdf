package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a job failure for callers and for HTTP status mapping.
type Kind string

const (
	KindInvalidRequest  Kind = "invalid_request"
	KindRuntimeNotFound Kind = "runtime_not_found"
	KindWorkspaceIO     Kind = "workspace_io"
	KindTimeout         Kind = "timeout"
	KindNonZeroExit     Kind = "nonzero_exit"
	KindOutputOverflow  Kind = "output_overflow"
	KindOutputMissing   Kind = "output_missing"
	KindOutputParse     Kind = "output_parse"
)

// Error is a kind-tagged job failure. Message is a short client-facing
// summary; Details carries diagnostic text (captured streams, recovered
// partial output) sufficient to triage without server access.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

// Error formats the failure for logs.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// DetailsOf extracts diagnostic detail from an error chain, falling back
// to the error text for untagged errors.
func DetailsOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Details != "" {
		return e.Details
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
