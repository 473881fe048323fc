package builder

import (
	"errors"

	"github.com/nomoreats/builder/internal/backend"
)

// Validation failures. None of them changes session state.
var (
	ErrNameRequired           = errors.New("name is required")
	ErrJobDescriptionRequired = errors.New("job description is required")
	ErrNoCredits              = errors.New("no tailoring credits left")
	ErrBusy                   = errors.New("a generation request is already in progress")
	ErrInvalidEdit            = errors.New("invalid edit")
	ErrFieldLocked            = errors.New("field limit reached")
	ErrSessionNotFound        = errors.New("session not found")
)

// ServiceError is a failed call to the generation service. Fallback is the
// message shown when the service gave no detail.
type ServiceError struct {
	Fallback string
	Err      error
}

func (e *ServiceError) Error() string { return e.Fallback + ": " + e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// Notice returns the short user-facing message for err.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNameRequired):
		return "Please enter your name"
	case errors.Is(err, ErrJobDescriptionRequired):
		return "Please paste a job description"
	case errors.Is(err, ErrNoCredits):
		return "No tailoring credits left"
	case errors.Is(err, ErrBusy):
		return "Generation already in progress"
	case errors.Is(err, ErrFieldLocked):
		return "Field limit reached for your plan"
	}
	if d, ok := backend.Detail(err); ok {
		return d
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Fallback
	}
	return err.Error()
}
