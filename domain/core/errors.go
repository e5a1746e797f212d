package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// Dataset shape errors
	ErrMissingColumn = errors.New("required column missing")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotNumeric    = errors.New("column is not numeric")
	ErrNoHeader      = errors.New("no header row")
)

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

func NewUnknownColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

func NewSessionNotFoundError(id SessionID) error {
	return fmt.Errorf("%w with id %s", ErrSessionNotFound, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrNotNumeric)
}

func NewNotNumericError(column string) error {
	return fmt.Errorf("%w: %q", ErrNotNumeric, column)
}
