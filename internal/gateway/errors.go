package gateway

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned when an operation is attempted without a session
// token. The call is aborted locally; no network request is made.
var ErrNoToken = errors.New("no session token")

// APIError carries a server-supplied failure message. For validation
// failures the gateway keys messages by field; the first field message is
// promoted to Message so the UI can surface it verbatim.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("gateway: %s: %s (status %d)", e.Field, e.Message, e.Status)
	}
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
}

// IsValidation reports whether the error is a 4xx validation failure whose
// message should be shown inline without discarding user input.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// UserMessage extracts the display message for an error: the server-supplied
// text for APIErrors, a generic line otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrNoToken) {
		return "You are not logged in."
	}
	return "Request failed. Please try again."
}
