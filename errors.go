package bazaar

import (
	"errors"
	"fmt"

	"github.com/xraph/bazaar/guard"
)

// Sentinel errors for common failure scenarios.
var (
	// Operation taxonomy. Every mutating operation fails with exactly one
	// of these (possibly wrapped) and commits nothing.
	ErrConcurrency       = errors.New("bazaar: another operation is in progress")
	ErrUnauthorized      = errors.New("bazaar: unauthorized")
	ErrInvalidInput      = errors.New("bazaar: invalid input")
	ErrInvalidAsset      = errors.New("bazaar: invalid asset")
	ErrInsufficientFunds = errors.New("bazaar: insufficient funds")
	ErrOutOfStock        = errors.New("bazaar: out of stock")
	ErrMissingApproval   = errors.New("bazaar: missing spending approval")

	// Lookup errors
	ErrNotFound      = errors.New("bazaar: not found")
	ErrAlreadyExists = errors.New("bazaar: already exists")

	// Engine errors
	ErrNotStarted = errors.New("bazaar: engine not started")
	ErrNoCaller   = errors.New("bazaar: no caller in context")

	// Store errors
	ErrStoreNotReady     = errors.New("bazaar: store not ready")
	ErrStoreClosed       = errors.New("bazaar: store is closed")
	ErrTransactionFailed = errors.New("bazaar: transaction failed")
	ErrMigrationFailed   = errors.New("bazaar: migration failed")
)

// ValidationError represents a validation failure with details. It
// matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bazaar: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap classifies every validation failure as invalid input.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "bazaar: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("bazaar: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// ErrorKind is the category of an operation failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConcurrency
	KindAuthorization
	KindInvalidInput
	KindInvalidAsset
	KindInsufficientFunds
	KindOutOfStock
	KindMissingApproval
	KindOther
)

var kindNames = [...]string{
	KindNone:              "none",
	KindConcurrency:       "concurrency",
	KindAuthorization:     "authorization",
	KindInvalidInput:      "invalid_input",
	KindInvalidAsset:      "invalid_asset",
	KindInsufficientFunds: "insufficient_funds",
	KindOutOfStock:        "out_of_stock",
	KindMissingApproval:   "missing_approval",
	KindOther:             "other",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kind classifies err. A nil error is KindNone.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case IsConcurrency(err):
		return KindConcurrency
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNoCaller):
		return KindAuthorization
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidAsset):
		return KindInvalidAsset
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrOutOfStock):
		return KindOutOfStock
	case errors.Is(err, ErrMissingApproval):
		return KindMissingApproval
	default:
		return KindOther
	}
}

// IsConcurrency returns true if the operation was rejected because another
// one was in flight.
func IsConcurrency(err error) bool {
	return errors.Is(err, ErrConcurrency) || errors.Is(err, guard.ErrBusy)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return IsConcurrency(err) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
