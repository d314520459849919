package services

import (
	"fmt"
)

// ServiceError is the caller-facing error taxonomy: an HTTP-ish status, a
// stable string code, and enough context (Details) for the caller to act
// without a follow-up lookup.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}
