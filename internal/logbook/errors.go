package logbook

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptyName      = errors.New("log name is empty")
	ErrNameTaken      = errors.New("log name already exists")
	ErrReservedName   = errors.New("log name is reserved")
	ErrAlreadyOpen    = errors.New("log file is already open")
	ErrNoLog          = errors.New("no log selected")
	ErrNoSelection    = errors.New("no record selected")
	ErrRecordNotFound = errors.New("record not found")
	ErrNotImplemented = errors.New("not implemented")
)

// FieldError reports the first selected field whose value failed validation.
type FieldError struct {
	Field    string
	Friendly string
	Err      error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("the data in field %q is not valid: %v", e.Friendly, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// IsUserError reports whether err is caused by user input that should be
// corrected and resubmitted, as opposed to an internal failure.
func IsUserError(err error) bool {
	if err == nil {
		return false
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return true
	}
	for _, target := range []error{ErrEmptyName, ErrNameTaken, ErrReservedName, ErrAlreadyOpen} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
