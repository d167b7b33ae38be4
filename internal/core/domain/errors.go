package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNetwork     = errors.New("document list request failed")
	ErrDeletion    = errors.New("document deletion failed")
	ErrUpload      = errors.New("document upload failed")
	ErrIngest      = errors.New("document ingest failed")
	ErrUnavailable = errors.New("server unavailable")
	ErrConflict    = errors.New("operation already in progress")
	ErrNotFound    = errors.New("not found")
	ErrTemporary   = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationError is a local, pre-network rejection shown to the operator as is.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) UserMessage() string {
	return e.Message
}

type userMessager interface {
	UserMessage() string
}

// UserMessage extracts the text an operator should see for err: server-provided text
// or a validation message when available, otherwise the full error chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return err.Error()
}
