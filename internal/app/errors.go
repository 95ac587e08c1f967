package app

import "fmt"

// DomainError is an error the HTTP layer knows how to serialize: an HTTP
// status, a stable machine code (VALIDATION_ERROR, ACCESS_DENIED, ...) and a
// human-readable message. Anything else maps to a 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
