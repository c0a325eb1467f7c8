package orders

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("not found")
)

// ValidationError reports a client payload that failed validation. Nothing
// is persisted or broadcast when it is returned.
type ValidationError struct {
	Fields []string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.err)
}

func (e *ValidationError) Unwrap() error { return e.err }

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verr := &ValidationError{err: err}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, fe.Namespace())
		}
	}
	return verr
}

// ParseStatus accepts only the statuses a vendor may set.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusAccepted, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q: want %q or %q", ErrInvalidStatus, raw, StatusAccepted, StatusRejected)
	}
}
