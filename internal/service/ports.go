package service

import (
	"context"

	"quizengine/internal/models"
)

// QuestionSource provides read-only access to quizzes and their questions
type QuestionSource interface {
	GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error)
	QuestionsOf(ctx context.Context, quizID string) ([]models.Question, error)
	OwnerOf(ctx context.Context, quizID string) (string, error)
}

// SessionStore persists sessions. Mutations on one session must be atomic
// and serialized with respect to each other.
type SessionStore interface {
	Create(ctx context.Context, session *models.QuizSession, questionIDs []string) error
	Get(ctx context.Context, sessionID string) (*models.SessionState, error)
	OwnerOf(ctx context.Context, sessionID string) (string, error)
	MarkAnswered(ctx context.Context, sessionID string, position int, correct bool, chosen []int, durationMs int64) (*models.SessionState, error)
	ToggleBookmark(ctx context.Context, sessionID string, position int) (bool, error)
	SetStatus(ctx context.Context, sessionID string, status models.SessionStatus) (*models.SessionState, error)
	ListForQuiz(ctx context.Context, userID, quizID string) ([]models.SessionSummary, error)
	Rename(ctx context.Context, sessionID, name string) error
	Delete(ctx context.Context, sessionID string) error

	// QuestionStats counts a user's answers per question over every session
	// of the quiz. Questions never answered are omitted.
	QuestionStats(ctx context.Context, userID, quizID string) ([]models.QuestionStat, error)
	// DailyStats groups a user's answers for the quiz by UTC day, oldest first
	DailyStats(ctx context.Context, userID, quizID string) ([]models.DailyStat, error)
	CountForQuiz(ctx context.Context, userID, quizID string) (int, error)
}
