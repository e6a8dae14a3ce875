package utils

import "fmt"

// StatusError carries an HTTP status code and the body text the server sent
// with it. Code is zero when the request never produced a response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("transport failure: %s", e.Message)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New returns a *StatusError.
func New(code int, message string) error {
	return &StatusError{
		Code:    code,
		Message: message,
	}
}
