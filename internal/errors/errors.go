package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the state managers and repositories
// distinguish. Matchable with errors.Is through any number of %w wrappings.
var (
	// ErrValidation — a required field is missing or malformed. Raised before
	// any store call where feasible.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateMainAccount — a create or rename would violate the
	// Main Account singleton.
	ErrDuplicateMainAccount = errors.New("main account already exists")

	// ErrProtectedAccount — an attempt to delete the Main Account.
	ErrProtectedAccount = errors.New("main account cannot be deleted")

	// ErrNotFound — the referenced row is no longer present, e.g. an update
	// racing a concurrent deletion.
	ErrNotFound = errors.New("not found")

	// ErrRemote — any store failure not otherwise classified.
	ErrRemote = errors.New("remote store error")
)

// AppError pairs a sentinel with a registered code and message so the
// presentation layer can render a specific, user-facing failure.
type AppError struct {
	Code    ErrorCode
	Message string
	err     error
}

// NewAppError creates an AppError wrapping the given sentinel. When message is
// empty the registered default for the code is used.
func NewAppError(code ErrorCode, sentinel error, message string) *AppError {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return &AppError{Code: code, Message: message, err: sentinel}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Validation returns a field-specific validation error.
func Validation(field, reason string) *AppError {
	return NewAppError(ValidationGeneral, ErrValidation, fmt.Sprintf("%s: %s", field, reason))
}

// Remote wraps a raw store failure with the generic retry-able message.
func Remote(err error) *AppError {
	return &AppError{
		Code:    StoreRequestFailed,
		Message: GetErrorMessage(StoreRequestFailed),
		err:     fmt.Errorf("%w: %w", ErrRemote, err),
	}
}

// IsDuplicateMainAccount reports whether err is the Main Account singleton
// violation, whether raised locally or recovered from the store.
func IsDuplicateMainAccount(err error) bool {
	return errors.Is(err, ErrDuplicateMainAccount)
}

// IsNotFound reports whether err is a missing-row failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
