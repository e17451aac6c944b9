package validation

import (
	"fmt"
	"strings"
	"unicode"

	"quizengine/internal/models"
)

const (
	// MaxSessionNameLength is measured in bytes
	MaxSessionNameLength = 100
	maxIdentifierLength  = 128
)

// ValidationError represents a validation error. It matches
// models.ErrInvalidArgument under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", models.ErrInvalidArgument, e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return models.ErrInvalidArgument
}

// SessionName trims name and checks it is usable as a session name
func SessionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError{Field: "name", Message: "session name is required"}
	}
	if len(name) > MaxSessionNameLength {
		return "", ValidationError{Field: "name", Message: fmt.Sprintf("session name longer than %d characters", MaxSessionNameLength)}
	}
	return name, nil
}

// Identifier checks a user, quiz or question ID supplied from outside
func Identifier(field, id string) error {
	if id == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(id) > maxIdentifierLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s longer than %d characters", field, maxIdentifierLength)}
	}
	if strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return ValidationError{Field: field, Message: field + " must not contain whitespace"}
	}
	return nil
}
