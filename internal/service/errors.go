package service

import (
	"errors"
	"fmt"
	"strings"
)

var ErrAssetStoreDisabled = errors.New("asset store is not configured")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field that failed validation, in input order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// DuplicateError means another product already uses Nombre.
type DuplicateError struct {
	Nombre string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("ya existe un producto con el nombre %q", e.Nombre)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}
