// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline errors by the stage that produced them.
type ErrorKind string

const (
	// KindResolution covers listing fetch and parse failures. It aborts a run.
	KindResolution ErrorKind = "resolution"
	// KindFetch covers per-paper metadata and PDF failures. It is isolated
	// to one paper.
	KindFetch ErrorKind = "fetch"
	// KindEmbedding covers embedding provider failures.
	KindEmbedding ErrorKind = "embedding"
	// KindStorage covers vector store failures.
	KindStorage ErrorKind = "storage"
	// KindUnknown is reported for errors that carry no kind.
	KindUnknown ErrorKind = "unknown"
)

// Error is the typed error returned by every pipeline stage.
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed (e.g. "resolve", "fetch metadata").
	Op string
	// ID is the listing URL or external identifier involved, if any.
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind, operation, and identifier.
func NewError(kind ErrorKind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
