package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that no notification exists with the requested ID.
	ErrNotFound = errors.New("notification not found")

	// ErrAlreadyRead indicates that the notification has already been marked as read.
	ErrAlreadyRead = errors.New("notification already read")
)

// ValidationError describes a rejected field of a creation request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
