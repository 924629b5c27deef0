package core

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInUse             = errors.New("in use")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrImport            = errors.New("import rejected")
)

var (
	ErrInvalidAmount    = &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	ErrEmptyDescription = &ValidationError{Field: "description", Reason: "is required"}
	ErrEmptyName        = &ValidationError{Field: "name", Reason: "is required"}
	ErrMissingSource    = &ValidationError{Field: "sourceId", Reason: "is required"}
	ErrMissingCategory  = &ValidationError{Field: "categoryId", Reason: "is required"}
	ErrInvalidDate      = &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	ErrInvalidMonth     = &ValidationError{Field: "month", Reason: "must be YYYY-MM"}
)

// ValidationError rejects user input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an id that no longer exists.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InUseError blocks deleting something other records still reference.
type InUseError struct {
	Kind  string
	ID    string
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %q is referenced by %d record(s)", e.Kind, e.ID, e.Count)
}

func (e *InUseError) Unwrap() error { return ErrInUse }

// InsufficientFundsError is returned when an amount exceeds what is available.
type InsufficientFundsError struct {
	ID        string
	Available Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %q: available %s, requested %s", e.ID, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// ImportError rejects a whole bulk import.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import rejected: %s: %v", e.Reason, e.Err)
	}
	return "import rejected: " + e.Reason
}

func (e *ImportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrImport, e.Err}
	}
	return []error{ErrImport}
}
