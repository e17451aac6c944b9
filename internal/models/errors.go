package models

import (
	"errors"
	"fmt"
)

// Engine errors. Callers match them with errors.Is; wrapped errors carry detail.
var (
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrEmptySelection      = errors.New("no questions match the selection")
	ErrPositionNotFrontier = errors.New("position is not the next unanswered question")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrInvalidTransition   = errors.New("invalid session status transition")
)

// ErrSessionNameTaken is returned when a user reuses a session name within a quiz
var ErrSessionNameTaken = fmt.Errorf("%w: session name already in use", ErrInvalidArgument)
