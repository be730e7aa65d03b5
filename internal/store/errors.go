package store

import (
	"errors"

	"todo-tabs/internal/repository"
)

var (
	// ErrNotFound means the id is not (or no longer) in the collection.
	ErrNotFound = errors.New("record not found")
	// ErrStorageUnavailable means both persistence backends failed.
	ErrStorageUnavailable = repository.ErrStorageUnavailable
)

// ValidationKind classifies a rejected mutation.
type ValidationKind int

const (
	EmptyRequiredField ValidationKind = iota + 1
	DuplicateName
)

func (k ValidationKind) String() string {
	switch k {
	case EmptyRequiredField:
		return "empty required field"
	case DuplicateName:
		return "duplicate name"
	default:
		return "invalid"
	}
}

// ValidationError is a caller-correctable rejection. Message is meant to be
// shown to the user as is.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + ": " + e.Kind.String()
}

// IsValidation reports whether err is a ValidationError of the given kind.
func IsValidation(err error, kind ValidationKind) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Kind == kind
}
