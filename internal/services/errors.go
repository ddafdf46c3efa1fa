package services

import (
	"fmt"
	"strings"
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// ValidationError collects every field violation of one request.
type ValidationError struct {
	Fields []FieldError
}

func (ve *ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		messages[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// Add records a violation of field. Only the first violation of a field
// is kept.
func (ve *ValidationError) Add(field, message string) {
	if ve.Has(field) {
		return
	}
	ve.Fields = append(ve.Fields, FieldError{Field: field, Message: message})
}

func (ve *ValidationError) Has(field string) bool {
	for _, fe := range ve.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (ve *ValidationError) HasErrors() bool {
	return len(ve.Fields) > 0
}

// OrNil returns ve as an error if it holds any violation.
func (ve *ValidationError) OrNil() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}
