package service

import (
	"context"

	"quizengine/internal/models"
)

// Owners resolves the owning user of a resource
type Owners interface {
	OwnerOf(ctx context.Context, id string) (string, error)
}

// Gate checks that the caller owns the quiz or session an operation touches
type Gate struct {
	quizzes  Owners
	sessions Owners
}

// NewGate creates a gate over quiz and session ownership
func NewGate(quizzes, sessions Owners) *Gate {
	return &Gate{quizzes: quizzes, sessions: sessions}
}

// AuthorizeQuiz fails with ErrForbidden unless userID owns the quiz
func (g *Gate) AuthorizeQuiz(ctx context.Context, userID, quizID string) error {
	return authorize(ctx, g.quizzes, userID, quizID)
}

// AuthorizeSession fails with ErrForbidden unless userID owns the session
func (g *Gate) AuthorizeSession(ctx context.Context, userID, sessionID string) error {
	return authorize(ctx, g.sessions, userID, sessionID)
}

func authorize(ctx context.Context, owners Owners, userID, id string) error {
	if userID == "" {
		return models.ErrForbidden
	}
	owner, err := owners.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return models.ErrForbidden
	}
	return nil
}
