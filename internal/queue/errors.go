package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

// ErrOrderNotFound is returned by status updates for an unknown order id.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError rejects a request before any state mutation. Fields
// lists every offending input, not just the first one.
type ValidationError struct {
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func singleFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: []domain.FieldError{{Field: field, Message: message}}}
}
