package iconconfig

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks a request missing a required field.
	ErrValidation = errors.New("validation failed")
	// ErrNoDocument means no configuration file has been written yet.
	ErrNoDocument = errors.New("no configuration file found")
	// ErrNotFound means the icon id is not in the document.
	ErrNotFound = errors.New("icon not found")
	// ErrPersist wraps failures reading or writing the configuration file.
	ErrPersist = errors.New("persisting configuration")
)

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoDocument), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// StatusError is returned by Client when the server answers with a non-2xx
// status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("icon config: status %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the config store.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// IsValidation reports whether err is a 400 from the config store.
func IsValidation(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusBadRequest
}

// IsTransient reports whether a retry could succeed: transport failures and
// 5xx answers. Validation and not-found errors are terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return true
}
