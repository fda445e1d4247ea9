package common

import "strings"

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of a request so the caller can
// report them all at once. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// Required records field as missing when value is blank.
func (v *ValidationError) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
	}
}

// Err returns nil when nothing was recorded, so it can be returned directly.
func (v *ValidationError) Err() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid input: " + strings.Join(msgs, ", ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
