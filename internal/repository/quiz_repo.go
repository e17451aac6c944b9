package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizengine/internal/database"
	"quizengine/internal/models"
)

// QuizRepository reads quizzes and their questions. Create exists for
// seeding; authoring happens elsewhere.
type QuizRepository struct {
	db *database.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *database.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// Create stores a quiz and its questions in one transaction. Question order
// follows the slice order.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz, questions []models.Question) error {
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quizzes (id, owner_id, title, created_at) VALUES (?, ?, ?, ?)`,
			quiz.ID, quiz.OwnerID, quiz.Title, quiz.CreatedAt)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return fmt.Errorf("%w: quiz %s already exists", models.ErrInvalidArgument, quiz.ID)
			}
			return fmt.Errorf("failed to insert quiz: %w", err)
		}

		quiz.QuestionIDs = quiz.QuestionIDs[:0]
		for i, q := range questions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, quiz_id, ordinal, prompt, category, explanation) VALUES (?, ?, ?, ?, ?, ?)`,
				q.ID, quiz.ID, i+1, q.Prompt, q.Category, q.Explanation); err != nil {
				return fmt.Errorf("failed to insert question %s: %w", q.ID, err)
			}

			correct := make(map[int]bool, len(q.CorrectOptions))
			for _, idx := range q.CorrectOptions {
				correct[idx] = true
			}
			for idx, text := range q.Options {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO question_options (question_id, idx, text, is_correct) VALUES (?, ?, ?, ?)`,
					q.ID, idx, text, correct[idx]); err != nil {
					return fmt.Errorf("failed to insert option %d of question %s: %w", idx, q.ID, err)
				}
			}
			quiz.QuestionIDs = append(quiz.QuestionIDs, q.ID)
		}
		return nil
	})
}

// GetQuiz retrieves a quiz with its ordered question IDs
func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, created_at FROM quizzes WHERE id = ?`, quizID,
	).Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", quizID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM questions WHERE quiz_id = ? ORDER BY ordinal`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list question ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		quiz.QuestionIDs = append(quiz.QuestionIDs, id)
	}
	return quiz, rows.Err()
}

// OwnerOf returns the owning user of a quiz
func (r *QuizRepository) OwnerOf(ctx context.Context, quizID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM quizzes WHERE id = ?`, quizID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("quiz %s: %w", quizID, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get quiz owner: %w", err)
	}
	return owner, nil
}

// QuestionsOf returns every question of a quiz in authored order, with options
// and correct answers
func (r *QuizRepository) QuestionsOf(ctx context.Context, quizID string) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT q.id, q.prompt, q.category, q.explanation, o.idx, o.text, o.is_correct
		FROM questions q
		LEFT JOIN question_options o ON o.question_id = q.id
		WHERE q.quiz_id = ?
		ORDER BY q.ordinal, o.idx
	`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var (
			id, prompt, category, explanation string
			idx                               sql.NullInt64
			text                              sql.NullString
			isCorrect                         sql.NullBool
		)
		if err := rows.Scan(&id, &prompt, &category, &explanation, &idx, &text, &isCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		if len(questions) == 0 || questions[len(questions)-1].ID != id {
			questions = append(questions, models.Question{
				ID:          id,
				QuizID:      quizID,
				Prompt:      prompt,
				Category:    category,
				Explanation: explanation,
			})
		}
		if !idx.Valid {
			continue
		}
		q := &questions[len(questions)-1]
		q.Options = append(q.Options, text.String)
		if isCorrect.Bool {
			q.CorrectOptions = append(q.CorrectOptions, int(idx.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}
