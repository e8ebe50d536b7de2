// Package apperr defines the closed set of failure kinds surfaced by the document library.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNotFound: the document id or its blob does not exist.
	KindNotFound
	// KindConflict: a document with the same file name already exists.
	KindConflict
	// KindValidation: paging or search parameters are missing or invalid.
	KindValidation
	// KindStore: the relational store failed.
	KindStore
	// KindIO: the blob store failed.
	KindIO
	// KindDataIntegrity: the row and the blob disagree (one exists without the other).
	KindDataIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	case KindIO:
		return "io"
	case KindDataIntegrity:
		return "data_integrity"
	default:
		return "unknown"
	}
}

// Error carries a Kind with the operation and subject (document id, file name, parameter) it concerns.
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error.
func E(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Validation builds a KindValidation error with a formatted reason.
func Validation(op, subject, format string, args ...any) *Error {
	return E(KindValidation, op, subject, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
