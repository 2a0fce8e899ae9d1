package sheets

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure is matched by every fetch failure, transport or HTTP status.
	ErrNetworkFailure = errors.New("network failure")

	// ErrMissingField is returned when a required column is empty.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidField is returned when a column cannot be parsed.
	ErrInvalidField = errors.New("invalid field")
)

// NetworkError wraps a failed sheet request
type NetworkError struct {
	Sheet      string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching sheet %s: status %d: %v", e.Sheet, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetching sheet %s: %v", e.Sheet, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkFailure
}

// RowError describes a sheet row that could not be decoded. Line is the
// 1-based line of the CSV body, counting the header.
type RowError struct {
	Sheet string
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %s: %v", e.Sheet, e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
