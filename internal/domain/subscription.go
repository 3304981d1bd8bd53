package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SubscriptionForm is the candidate identity a visitor submits to the gate.
type SubscriptionForm struct {
	Name string `json:"name" validate:"required"`
	Mail string `json:"mail" validate:"required,email"`
	IP   string `json:"ip"`
}

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected field of a form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid subscription: " + strings.Join(msgs, "; ")
}

var validate = validator.New()

// Normalize trims surrounding whitespace from every field.
func (f SubscriptionForm) Normalize() SubscriptionForm {
	return SubscriptionForm{
		Name: strings.TrimSpace(f.Name),
		Mail: strings.TrimSpace(f.Mail),
		IP:   strings.TrimSpace(f.IP),
	}
}

// Validate checks the form locally, before any network call is made.
// It returns a *ValidationError describing each rejected field.
func (f SubscriptionForm) Validate() error {
	err := validate.Struct(f.Normalize())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate subscription: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msg := field + " is invalid"
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email address"
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: msg})
	}
	return out
}
