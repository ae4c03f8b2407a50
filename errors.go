package stockfolio

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	// ErrValidation reports a malformed or inconsistent input.
	ErrValidation = errors.New("validation error")
	// ErrDomain reports an operation that is not allowed in the current state.
	ErrDomain = errors.New("domain error")
	// ErrIO reports an unreachable or malformed store.
	ErrIO = errors.New("i/o error")
)

// classified is a sentinel error belonging to one of the error classes.
type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string        { return e.msg }
func (e *classified) Is(target error) bool { return target == e.class }

func validation(msg string) error { return &classified{msg, ErrValidation} }
func domain(msg string) error     { return &classified{msg, ErrDomain} }

// Validation errors.
var (
	ErrInvalidName   = validation("portfolio name must be non empty and alphanumeric")
	ErrInvalidKind   = validation("unknown portfolio kind")
	ErrInvalidLot    = validation("invalid lot")
	ErrInvalidAmount = validation("invalid amount")
	ErrInvalidDate   = validation("invalid date")
	ErrFutureDate    = validation("date cannot be in the future")
	ErrDateOrder     = validation("end date cannot be before start date")
	ErrProportions   = validation("proportions must sum to 100%")
)

// Domain errors.
var (
	ErrPortfolioNotFound = domain("portfolio not found")
	ErrPortfolioExists   = domain("portfolio already exists")
	ErrWrongKind         = domain("wrong portfolio kind")
	ErrOversell          = domain("insufficient shares to sell")
	ErrPriceUnavailable  = domain("price unavailable")
	ErrNoHoldings        = domain("total net quantity is zero")
	ErrStrategyExecuted  = domain("strategy already executed")
)

// ioError marks an underlying error as belonging to the ErrIO class.
type ioError struct{ err error }

func (e *ioError) Error() string        { return e.err.Error() }
func (e *ioError) Unwrap() error        { return e.err }
func (e *ioError) Is(target error) bool { return target == ErrIO }

// IOError classifies err as an I/O failure. It returns nil if err is nil.
func IOError(err error) error {
	if err == nil || errors.Is(err, ErrIO) {
		return err
	}
	return &ioError{err}
}

// ioErrorf is like fmt.Errorf but the result belongs to the ErrIO class.
func ioErrorf(format string, args ...any) error {
	return IOError(fmt.Errorf(format, args...))
}
