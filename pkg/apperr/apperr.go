// Package apperr defines the error kinds surfaced by the services. Handlers
// match them with errors.Is / errors.As to pick a response.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrPermission = errors.New("permission denied")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrDelivery   = errors.New("delivery failed")
)

// ValidationError carries per-field messages. An empty field key holds
// messages that are not tied to a single field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e.Fields[k])
			continue
		}
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func Validation(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func Permission(format string, args ...interface{}) error {
	return &kindError{kind: ErrPermission, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id interface{}) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf("%s %v not found", entity, id)}
}

// Delivery wraps a transport failure so callers can log it without treating
// it as a failed operation.
func Delivery(recipient string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDelivery, recipient, err)
}

// Message returns the user-facing text for kinded errors.
func Message(err error) string {
	var k *kindError
	if errors.As(err, &k) {
		return k.msg
	}
	return err.Error()
}
