package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructural marks a multi-line feature whose lines disagree.
	ErrStructural = errors.New("inconsistent multi-line feature")
	// ErrUnresolvedReference marks references to IDs absent from the scope.
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// TypeMismatchError is returned when a line continues a feature ID with a
// different type than the feature's earlier lines.
type TypeMismatchError struct {
	ID       string
	Existing string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("multi-line feature %q has inconsistent types: %q, %q", e.ID, e.Got, e.Existing)
}

func (e *TypeMismatchError) Unwrap() error { return ErrStructural }

// UnresolvedReferenceError lists the target IDs that were referenced by a
// Parent or Derives_from attribute but never defined in the scope.
type UnresolvedReferenceError struct {
	IDs []string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("some features reference other features that do not exist in the file (or in the same '###' scope): %s",
		strings.Join(e.IDs, ","))
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }
