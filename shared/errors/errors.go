package errors

import "net/http"

// ErrorWithStatusCode carries the HTTP status a failure should surface as.
// Handlers treat any other error as an internal 500 and never echo details.
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func IsNotFound(err error) bool {
	e, ok := err.(*ErrorWithStatusCode)
	return ok && e.StatusCode == http.StatusNotFound
}

// Unauthorized is the single response for every credential failure at the
// login boundary, so callers can't probe which accounts exist.
func Unauthorized() *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
}
