// Package parser defines the error taxonomy shared by the report parsers.
// The parsers themselves live in the junit and clover subpackages; both are
// pure functions over bytes, safe for concurrent and repeated use.
package parser

import "fmt"

// ErrorKind classifies a document-level parse failure.
type ErrorKind string

const (
	// MalformedDocument means the bytes could not be decoded as XML at all.
	MalformedDocument ErrorKind = "MalformedDocument"
	// MissingRootElement means the XML decoded but the structurally required
	// root element is absent.
	MissingRootElement ErrorKind = "MissingRootElement"
)

// ParseError is a document-level failure. Individual malformed records inside
// an otherwise well-formed document never produce a ParseError; they are
// skipped so the rest of the file keeps contributing.
type ParseError struct {
	Kind ErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewError builds a ParseError of the given kind wrapping cause.
func NewError(kind ErrorKind, cause error) *ParseError {
	return &ParseError{Kind: kind, Err: cause}
}
