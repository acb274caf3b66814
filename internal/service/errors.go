package service

import (
	"errors"
	"strings"
)

var (
	// ErrStorage wraps any failure of the message store.
	ErrStorage = errors.New("storage failure")
	// ErrNotification means the contact message was stored but the owner alert
	// could not be delivered.
	ErrNotification = errors.New("owner notification failed")
	// ErrInvalidCredentials is returned for any username/password mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// FieldError describes one invalid or missing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a submission is rejected before any side
// effect. Message is safe to show to the submitter.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Message
	}
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "validation: " + e.Message + " (" + strings.Join(names, ", ") + ")"
}
