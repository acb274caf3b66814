package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/portfolio/backend/internal/model"
)

// Message length bounds, in Unicode code points, inclusive.
const (
	MinMessageLength = 10
	MaxMessageLength = 1000
)

// User-facing validation messages.
const (
	MsgRequiredFields  = "Please fill in all required fields correctly."
	MsgInvalidEmail    = "Please enter a valid email address."
	MsgMessageTooShort = "Message must be at least 10 characters long."
	MsgMessageTooLong  = "Message must not exceed 1000 characters."
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ShapeError builds the ValidationError for a payload missing required
// fields or carrying values of the wrong type.
func ShapeError(fields ...FieldError) *ValidationError {
	return &ValidationError{Message: MsgRequiredFields, Fields: fields}
}

// ValidateContactInput checks the required field set first, then the email
// pattern and message length. It returns nil or a *ValidationError.
func ValidateContactInput(in model.ContactInput) error {
	var missing []FieldError
	for _, f := range []struct{ name, value string }{
		{"name", in.Name},
		{"email", in.Email},
		{"subject", in.Subject},
		{"message", in.Message},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, FieldError{Field: f.name, Message: "Required"})
		}
	}
	if len(missing) > 0 {
		return ShapeError(missing...)
	}

	if !emailPattern.MatchString(in.Email) {
		return &ValidationError{
			Message: MsgInvalidEmail,
			Fields:  []FieldError{{Field: "email", Message: "Invalid email"}},
		}
	}

	n := utf8.RuneCountInString(in.Message)
	if n < MinMessageLength {
		return &ValidationError{
			Message: MsgMessageTooShort,
			Fields:  []FieldError{{Field: "message", Message: "Too short"}},
		}
	}
	if n > MaxMessageLength {
		return &ValidationError{
			Message: MsgMessageTooLong,
			Fields:  []FieldError{{Field: "message", Message: "Too long"}},
		}
	}
	return nil
}
