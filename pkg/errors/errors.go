package errors

import "fmt"

// ErrNotFound indicates a requested resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates missing or invalid credentials
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrValidation indicates a payload or outbound document failed validation.
// Validation errors are never retried automatically.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrInvalidStateTransition indicates an illegal order status change
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrMissingReference indicates a webhook payload without an external
// reference. This is a data-integrity problem, never silently swallowed.
type ErrMissingReference struct {
	WebhookID string
}

func (e *ErrMissingReference) Error() string {
	return fmt.Sprintf("webhook %s carries no external reference", e.WebhookID)
}

// ErrEntityMismatch indicates a webhook whose WMS entity id differs from the
// id already stored for the resolved local order. Applying it would risk
// attaching fulfillment data to the wrong order, so it is rejected outright.
type ErrEntityMismatch struct {
	OrderID  int64
	StoredID string
	Received string
}

func (e *ErrEntityMismatch) Error() string {
	return fmt.Sprintf("order %d is bound to WMS order %s, webhook references %s", e.OrderID, e.StoredID, e.Received)
}
