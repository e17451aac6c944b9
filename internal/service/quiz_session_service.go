package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizengine/internal/models"
	"quizengine/internal/security"
	"quizengine/internal/validation"
)

const maxSessionNameLength = validation.MaxSessionNameLength

// CreateSessionInput describes a new session
type CreateSessionInput struct {
	Name            string
	Mode            models.SelectionMode
	Count           int
	SourceSessionID string
}

// Render is the position a caller should display. For an answered item
// Question carries the answer key and explanation; for an open item both are
// withheld.
type Render struct {
	Session       models.QuizSession
	Position      int
	Total         int
	Frontier      int
	FullyAnswered bool
	Item          models.SessionItem
	Question      models.Question
	MultiSelect   bool
}

// Review reports whether the rendered item is shown as answered feedback
func (r *Render) Review() bool {
	return r.Item.Answered()
}

// QuizSessionService exposes the session operations. Every method checks
// ownership before touching any state.
type QuizSessionService struct {
	quizzes   QuestionSource
	sessions  SessionStore
	gate      *Gate
	selector  *Selector
	evaluator *Evaluator
	newID     func() string
	suffix    func() string
}

// NewQuizSessionService creates the session service
func NewQuizSessionService(quizzes QuestionSource, sessions SessionStore, maxAnswerDuration time.Duration) *QuizSessionService {
	return &QuizSessionService{
		quizzes:   quizzes,
		sessions:  sessions,
		gate:      NewGate(quizzes, sessions),
		selector:  NewSelector(),
		evaluator: NewEvaluator(sessions, maxAnswerDuration),
		newID:     security.GenerateID,
		suffix:    func() string { return security.ShortSuffix(6) },
	}
}

// CreateSession builds and stores a new session for quizID
func (s *QuizSessionService) CreateSession(ctx context.Context, userID, quizID string, in CreateSessionInput) (*models.QuizSession, error) {
	if err := s.gate.AuthorizeQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}

	name, err := validation.SessionName(in.Name)
	if err != nil {
		return nil, err
	}
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown selection mode %q", models.ErrInvalidArgument, in.Mode)
	}

	var source *models.SessionState
	if in.Mode.IsRetry() {
		if in.SourceSessionID == "" {
			return nil, fmt.Errorf("%w: retry requires a source session", models.ErrInvalidArgument)
		}
		if err := s.gate.AuthorizeSession(ctx, userID, in.SourceSessionID); err != nil {
			return nil, err
		}
		source, err = s.sessions.Get(ctx, in.SourceSessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load source session: %w", err)
		}
	}

	var history []models.QuestionStat
	if in.Mode.UsesHistory() {
		history, err = s.sessions.QuestionStats(ctx, userID, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to load answer history: %w", err)
		}
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	questionIDs, err := s.selector.Select(quiz, in.Mode, in.Count, source, history)
	if err != nil {
		return nil, err
	}

	session := &models.QuizSession{
		ID:     s.newID(),
		UserID: userID,
		QuizID: quizID,
		Name:   name,
		Mode:   in.Mode,
		Status: models.StatusActive,
	}
	if source != nil {
		session.SourceSessionID = source.Session.ID
	}

	if err := s.sessions.Create(ctx, session, questionIDs); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("Session %s created: user=%s quiz=%s mode=%s items=%d", session.ID, userID, quizID, session.Mode, len(questionIDs))
	return session, nil
}

// Retry starts a new session over the incorrect or bookmarked questions of
// sessionID. The source session is left untouched.
func (s *QuizSessionService) Retry(ctx context.Context, userID, sessionID string, mode models.SelectionMode) (*models.QuizSession, error) {
	if !mode.IsRetry() {
		return nil, fmt.Errorf("%w: %q is not a retry mode", models.ErrInvalidArgument, mode)
	}
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	source, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return s.CreateSession(ctx, userID, source.Session.QuizID, CreateSessionInput{
		Name:            s.retryName(source.Session.Name, mode),
		Mode:            mode,
		SourceSessionID: sessionID,
	})
}

func (s *QuizSessionService) retryName(base string, mode models.SelectionMode) string {
	tag := "retry"
	if mode == models.ModeRetryBookmarked {
		tag = "bm"
	}
	suffix := "-" + tag + "-" + s.suffix()
	if len(base)+len(suffix) > maxSessionNameLength {
		base = strings.ToValidUTF8(base[:maxSessionNameLength-len(suffix)], "")
	}
	return base + suffix
}

// Resume renders the first unanswered position, or the last one when every
// item is answered
func (s *QuizSessionService) Resume(ctx context.Context, userID, sessionID string) (*Render, error) {
	return s.Navigate(ctx, userID, sessionID, Intent{Kind: IntentResume})
}

// Navigate resolves intent against the stored progress and renders the result
func (s *QuizSessionService) Navigate(ctx context.Context, userID, sessionID string, intent Intent) (*Render, error) {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	position, err := Resolve(state, intent)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, state, position)
}

func (s *QuizSessionService) render(ctx context.Context, state *models.SessionState, position int) (*Render, error) {
	item, ok := state.Item(position)
	if !ok {
		return nil, fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, position)
	}

	question, err := s.question(ctx, state.Session.QuizID, item.QuestionID)
	if err != nil {
		return nil, err
	}
	multi := question.IsMultiSelect()
	if !item.Answered() {
		question.CorrectOptions = nil
		question.Explanation = ""
	}

	return &Render{
		Session:       state.Session,
		Position:      position,
		Total:         state.Total(),
		Frontier:      state.Frontier(),
		FullyAnswered: state.FullyAnswered(),
		Item:          item,
		Question:      question,
		MultiSelect:   multi,
	}, nil
}

// SubmitAnswer scores and records the answer at position
func (s *QuizSessionService) SubmitAnswer(ctx context.Context, userID, sessionID string, position int, chosen []int, durationMs int64) (*AnswerResult, error) {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	item, ok := state.Item(position)
	if !ok {
		return nil, fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, position)
	}
	question, err := s.question(ctx, state.Session.QuizID, item.QuestionID)
	if err != nil {
		return nil, err
	}

	return s.evaluator.Submit(ctx, state, &question, position, chosen, durationMs)
}

// ToggleBookmark flips the bookmark at position and returns the new value
func (s *QuizSessionService) ToggleBookmark(ctx context.Context, userID, sessionID string, position int) (bool, error) {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return false, err
	}
	return s.sessions.ToggleBookmark(ctx, sessionID, position)
}

// Abandon marks an active session abandoned. Progress is kept and the
// session can still be resumed for review.
func (s *QuizSessionService) Abandon(ctx context.Context, userID, sessionID string) error {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if _, err := s.sessions.SetStatus(ctx, sessionID, models.StatusAbandoned); err != nil {
		return err
	}
	log.Printf("Session %s abandoned by %s", sessionID, userID)
	return nil
}

// Complete marks a fully answered session completed and returns its summary.
// Completing an already completed session only returns the summary.
func (s *QuizSessionService) Complete(ctx context.Context, userID, sessionID string) (*Summary, error) {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if state.Session.Status != models.StatusCompleted {
		updated, err := s.sessions.SetStatus(ctx, sessionID, models.StatusCompleted)
		switch {
		case err == nil:
			state = updated
			log.Printf("Session %s completed by %s", sessionID, userID)
		case errors.Is(err, models.ErrInvalidTransition):
			// a concurrent request may have completed it first
			state, err = s.sessions.Get(ctx, sessionID)
			if err != nil {
				return nil, fmt.Errorf("failed to reload session: %w", err)
			}
			if state.Session.Status != models.StatusCompleted {
				return nil, fmt.Errorf("%w: session is %s with %d of %d answered",
					models.ErrInvalidTransition, state.Session.Status, state.Frontier()-1, state.Total())
			}
		default:
			return nil, err
		}
	}

	return s.summarize(ctx, state)
}

// Results returns the summary of a session in any status
func (s *QuizSessionService) Results(ctx context.Context, userID, sessionID string) (*Summary, error) {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return s.summarize(ctx, state)
}

func (s *QuizSessionService) summarize(ctx context.Context, state *models.SessionState) (*Summary, error) {
	questions, err := s.quizzes.QuestionsOf(ctx, state.Session.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return Summarize(state, indexQuestions(questions))
}

// History lists the caller's sessions for a quiz
func (s *QuizSessionService) History(ctx context.Context, userID, quizID string) ([]models.SessionSummary, error) {
	if err := s.gate.AuthorizeQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	return s.sessions.ListForQuiz(ctx, userID, quizID)
}

// Rename changes a session's name
func (s *QuizSessionService) Rename(ctx context.Context, userID, sessionID, name string) error {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return err
	}
	name, err := validation.SessionName(name)
	if err != nil {
		return err
	}
	return s.sessions.Rename(ctx, sessionID, name)
}

// Delete removes a session and its progress
func (s *QuizSessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if err := s.gate.AuthorizeSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("Session %s deleted by %s", sessionID, userID)
	return nil
}

func (s *QuizSessionService) question(ctx context.Context, quizID, questionID string) (models.Question, error) {
	questions, err := s.quizzes.QuestionsOf(ctx, quizID)
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to load questions: %w", err)
	}
	for _, q := range questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return models.Question{}, fmt.Errorf("question %s: %w", questionID, models.ErrNotFound)
}
