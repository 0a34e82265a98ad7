package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotImplemented marks a constructor-injected feature whose body is not
// built yet, so callers can tell "feature broken" from "feature disabled".
var ErrNotImplemented = errors.New("not implemented")

// ErrTemplateNotFound is returned when a template key resolves to nothing.
type ErrTemplateNotFound struct {
	Key string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template %q not found", e.Key)
}

func NewTemplateNotFound(key string) error {
	return &ErrTemplateNotFound{Key: key}
}

// ErrMessageNotFound is returned when a queue id does not exist.
type ErrMessageNotFound struct {
	MessageID int64
}

func (e *ErrMessageNotFound) Error() string {
	return fmt.Sprintf("message with ID %d not found", e.MessageID)
}

func NewMessageNotFound(id int64) error {
	return &ErrMessageNotFound{MessageID: id}
}

// IsNotFound reports whether err is any of the not-found error types.
func IsNotFound(err error) bool {
	var tmpl *ErrTemplateNotFound
	var msg *ErrMessageNotFound
	return errors.As(err, &tmpl) || errors.As(err, &msg)
}
