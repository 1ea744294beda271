package application

import (
	"errors"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// StatusError is returned by commands whose work completed but found
// problems the caller did not choose to ignore.
type StatusError struct {
	Status domain.Status
}

func (e *StatusError) Error() string {
	return "license check failed: " + e.Status.String()
}

// ExitCode is the process exit code for the status.
func (e *StatusError) ExitCode() int {
	return e.Status.ExitCode()
}

// Err converts a non-zero status into a *StatusError.
func Err(st domain.Status) error {
	if st.OK() {
		return nil
	}
	return &StatusError{Status: st}
}

// AsStatusError extracts a *StatusError from err.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}
