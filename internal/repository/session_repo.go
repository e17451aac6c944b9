package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"quizengine/internal/database"
	"quizengine/internal/models"
)

// SessionRepository persists quiz sessions and their items. Every mutation
// runs in a transaction that locks the session row first, so writes to one
// session serialize while different sessions proceed independently.
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, quiz_id, name, selection_mode, status, source_session_id, created_at, completed_at`

// Create stores a session and its items as one unit. Positions are assigned
// from the order of questionIDs.
func (r *SessionRepository) Create(ctx context.Context, session *models.QuizSession, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return models.ErrEmptySelection
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.Status == "" {
		session.Status = models.StatusActive
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quiz_sessions (`+sessionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, session.ID, session.UserID, session.QuizID, session.Name, string(session.Mode),
			string(session.Status), nullString(session.SourceSessionID), session.CreatedAt, nil)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return models.ErrSessionNameTaken
			}
			return fmt.Errorf("failed to insert session: %w", err)
		}

		for i, questionID := range questionIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_items (session_id, position, question_id) VALUES (?, ?, ?)`,
				session.ID, i+1, questionID); err != nil {
				if tx.GetDialect().IsUniqueViolation(err) {
					return fmt.Errorf("%w: question %s selected twice", models.ErrInvalidArgument, questionID)
				}
				return fmt.Errorf("failed to insert session item %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// Get retrieves a session with its items ordered by position
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.SessionState, error) {
	return loadState(ctx, r.db, sessionID, false)
}

// OwnerOf returns the owning user of a session
func (r *SessionRepository) OwnerOf(ctx context.Context, sessionID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM quiz_sessions WHERE id = ?`, sessionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session owner: %w", err)
	}
	return owner, nil
}

// MarkAnswered records the answer for the item at position. The position must
// be the current frontier and the session must be active.
func (r *SessionRepository) MarkAnswered(ctx context.Context, sessionID string, position int, correct bool, chosen []int, durationMs int64) (*models.SessionState, error) {
	var state *models.SessionState
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		state, err = loadState(ctx, tx, sessionID, true)
		if err != nil {
			return err
		}

		if state.Session.Status != models.StatusActive {
			return fmt.Errorf("%w: session is %s", models.ErrInvalidTransition, state.Session.Status)
		}
		item, ok := state.Item(position)
		if !ok {
			return fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, position)
		}
		if item.Answered() {
			return models.ErrAlreadyAnswered
		}
		if position != state.Frontier() {
			return models.ErrPositionNotFrontier
		}

		answeredAt := time.Now().UTC()
		encoded := encodeOptions(chosen)
		result, err := tx.ExecContext(ctx, `
			UPDATE session_items
			SET answered = ?, is_correct = ?, chosen_options = ?, duration_ms = ?, answered_at = ?
			WHERE session_id = ? AND position = ? AND answered = ?
		`, true, correct, encoded, durationMs, answeredAt, sessionID, position, false)
		if err != nil {
			return fmt.Errorf("failed to record answer: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return models.ErrAlreadyAnswered
		}

		state.SetAnswer(position, &models.Answer{
			Correct:    correct,
			Chosen:     decodeOptions(encoded),
			DurationMs: durationMs,
			AnsweredAt: answeredAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ToggleBookmark flips the bookmark flag of the item at position and returns
// the new value
func (r *SessionRepository) ToggleBookmark(ctx context.Context, sessionID string, position int) (bool, error) {
	var bookmarked bool
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}

		var current bool
		err := tx.QueryRowContext(ctx,
			`SELECT bookmarked FROM session_items WHERE session_id = ? AND position = ?`,
			sessionID, position).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, position)
		}
		if err != nil {
			return fmt.Errorf("failed to read bookmark: %w", err)
		}

		bookmarked = !current
		if _, err := tx.ExecContext(ctx,
			`UPDATE session_items SET bookmarked = ? WHERE session_id = ? AND position = ?`,
			bookmarked, sessionID, position); err != nil {
			return fmt.Errorf("failed to update bookmark: %w", err)
		}
		return nil
	})
	return bookmarked, err
}

// SetStatus moves an active session to completed or abandoned. Completion
// requires every item to be answered.
func (r *SessionRepository) SetStatus(ctx context.Context, sessionID string, status models.SessionStatus) (*models.SessionState, error) {
	var state *models.SessionState
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		state, err = loadState(ctx, tx, sessionID, true)
		if err != nil {
			return err
		}

		if !transitionAllowed(state, status) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, state.Session.Status, status)
		}

		var completedAt sql.NullTime
		if status == models.StatusCompleted {
			completedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE quiz_sessions SET status = ?, completed_at = ? WHERE id = ?`,
			string(status), completedAt, sessionID); err != nil {
			return fmt.Errorf("failed to update session status: %w", err)
		}

		state.Session.Status = status
		if completedAt.Valid {
			state.Session.CompletedAt = &completedAt.Time
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func transitionAllowed(state *models.SessionState, to models.SessionStatus) bool {
	if state.Session.Status != models.StatusActive {
		return false
	}
	switch to {
	case models.StatusCompleted:
		return state.FullyAnswered()
	case models.StatusAbandoned:
		return true
	}
	return false
}

// ListForQuiz returns a user's sessions for a quiz, newest first, with
// progress counts
func (r *SessionRepository) ListForQuiz(ctx context.Context, userID, quizID string) ([]models.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.quiz_id, s.name, s.selection_mode, s.status, s.source_session_id,
		       s.created_at, s.completed_at,
		       COUNT(i.position),
		       COALESCE(SUM(CASE WHEN i.answered THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN i.answered AND i.is_correct THEN 1 ELSE 0 END), 0)
		FROM quiz_sessions s
		LEFT JOIN session_items i ON i.session_id = s.id
		WHERE s.user_id = ? AND s.quiz_id = ?
		GROUP BY s.id, s.user_id, s.quiz_id, s.name, s.selection_mode, s.status, s.source_session_id,
		         s.created_at, s.completed_at
		ORDER BY s.created_at DESC, s.id
	`, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []models.SessionSummary
	for rows.Next() {
		var (
			row     sessionRow
			summary models.SessionSummary
		)
		dest := append(row.dest(), &summary.Total, &summary.Answered, &summary.Correct)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		summary.Session = row.value()
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// CountForQuiz returns how many sessions a user has for a quiz
func (r *SessionRepository) CountForQuiz(ctx context.Context, userID, quizID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_sessions WHERE user_id = ? AND quiz_id = ?`, userID, quizID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// QuestionStats counts a user's answered and incorrect items per question
// across every session of a quiz
func (r *SessionRepository) QuestionStats(ctx context.Context, userID, quizID string) ([]models.QuestionStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.question_id,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN i.is_correct THEN 0 ELSE 1 END), 0)
		FROM session_items i
		JOIN quiz_sessions s ON s.id = i.session_id
		WHERE s.user_id = ? AND s.quiz_id = ? AND i.answered = ?
		GROUP BY i.question_id
		ORDER BY i.question_id
	`, userID, quizID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query question stats: %w", err)
	}
	defer rows.Close()

	var stats []models.QuestionStat
	for rows.Next() {
		var st models.QuestionStat
		if err := rows.Scan(&st.QuestionID, &st.Answered, &st.Incorrect); err != nil {
			return nil, fmt.Errorf("failed to scan question stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// DailyStats groups a user's answers for a quiz by the UTC day they were
// given, oldest first
func (r *SessionRepository) DailyStats(ctx context.Context, userID, quizID string) ([]models.DailyStat, error) {
	day := r.db.GetDialect().DayExpr("i.answered_at")
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+day+`,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN i.is_correct THEN 1 ELSE 0 END), 0)
		FROM session_items i
		JOIN quiz_sessions s ON s.id = i.session_id
		WHERE s.user_id = ? AND s.quiz_id = ? AND i.answered = ?
		GROUP BY `+day+`
		ORDER BY `+day, userID, quizID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyStat
	for rows.Next() {
		var st models.DailyStat
		if err := rows.Scan(&st.Day, &st.Answered, &st.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Rename changes a session's display name
func (r *SessionRepository) Rename(ctx context.Context, sessionID, name string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE quiz_sessions SET name = ? WHERE id = ?`, name, sessionID); err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return models.ErrSessionNameTaken
			}
			return fmt.Errorf("failed to rename session: %w", err)
		}
		return nil
	})
}

// Delete removes a session and its items
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_items WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE id = ?`, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// lockSession takes the session row lock for the rest of the transaction
func lockSession(ctx context.Context, q database.DBTX, sessionID string) error {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM quiz_sessions WHERE id = ?`+q.GetDialect().LockSuffix(), sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	return nil
}

func loadState(ctx context.Context, q database.DBTX, sessionID string, lock bool) (*models.SessionState, error) {
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions WHERE id = ?`
	if lock {
		query += q.GetDialect().LockSuffix()
	}

	var row sessionRow
	err := q.QueryRowContext(ctx, query, sessionID).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	state := &models.SessionState{Session: row.value()}

	rows, err := q.QueryContext(ctx, `
		SELECT position, question_id, answered, is_correct, chosen_options, bookmarked, duration_ms, answered_at
		FROM session_items
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item       models.SessionItem
			answered   bool
			correct    bool
			chosen     string
			durationMs int64
			answeredAt sql.NullTime
		)
		if err := rows.Scan(&item.Position, &item.QuestionID, &answered, &correct, &chosen,
			&item.Bookmarked, &durationMs, &answeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan session item: %w", err)
		}
		if answered {
			item.Answer = &models.Answer{
				Correct:    correct,
				Chosen:     decodeOptions(chosen),
				DurationMs: durationMs,
				AnsweredAt: answeredAt.Time,
			}
		}
		state.Items = append(state.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return state, nil
}

// sessionRow holds the columns of one quiz_sessions row while it is scanned
type sessionRow struct {
	session     models.QuizSession
	mode        string
	status      string
	source      sql.NullString
	completedAt sql.NullTime
}

func (r *sessionRow) dest() []interface{} {
	return []interface{}{&r.session.ID, &r.session.UserID, &r.session.QuizID, &r.session.Name,
		&r.mode, &r.status, &r.source, &r.session.CreatedAt, &r.completedAt}
}

func (r *sessionRow) value() models.QuizSession {
	s := r.session
	s.Mode = models.SelectionMode(r.mode)
	s.Status = models.SessionStatus(r.status)
	s.SourceSessionID = r.source.String
	if r.completedAt.Valid {
		t := r.completedAt.Time
		s.CompletedAt = &t
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// encodeOptions stores option indices as a sorted comma-separated list
func encodeOptions(options []int) string {
	sorted := append([]int(nil), options...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// decodeOptions parses a list written by encodeOptions
func decodeOptions(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	options := make([]int, 0, len(parts))
	for _, p := range parts {
		if idx, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			options = append(options, idx)
		}
	}
	return options
}
