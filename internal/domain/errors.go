package domain

import "fmt"

// Error types for consistent error handling across the BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in a finance API call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUpstreamStatus indicates the finance API answered with a non-2xx status.
type ErrUpstreamStatus struct {
	Endpoint string
	Status   int
}

func (e *ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
}

// ErrSchema indicates a 2xx response whose body does not match the expected shape.
type ErrSchema struct {
	Resource string
	Err      error
}

func (e *ErrSchema) Error() string {
	return fmt.Sprintf("unexpected %s payload: %v", e.Resource, e.Err)
}

func (e *ErrSchema) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input). Field names the
// form input that should receive focus.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthenticated indicates there is no usable session.
type ErrUnauthenticated struct {
	Reason string
}

func (e *ErrUnauthenticated) Error() string {
	if e.Reason != "" {
		return "not authenticated: " + e.Reason
	}
	return "not authenticated"
}

// ErrLoginRejected indicates the finance API refused the credentials.
type ErrLoginRejected struct {
	Message string
}

func (e *ErrLoginRejected) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Error desconocido"
}
