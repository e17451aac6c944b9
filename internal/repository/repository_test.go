package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizengine/internal/database"
	"quizengine/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), ""))
	return db
}

func seedQuiz(t *testing.T, db *database.DB, quizID, owner string, n int) []models.Question {
	t.Helper()
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:             fmt.Sprintf("%s-q%d", quizID, i+1),
			Prompt:         fmt.Sprintf("Question %d", i+1),
			Options:        []string{"a", "b", "c"},
			CorrectOptions: []int{i % 3},
			Category:       []string{"syntax", "runtime"}[i%2],
			Explanation:    "because",
		}
	}
	quiz := &models.Quiz{ID: quizID, OwnerID: owner, Title: "Quiz " + quizID}
	require.NoError(t, NewQuizRepository(db).Create(context.Background(), quiz, questions))
	return questions
}

func createSession(t *testing.T, repo *SessionRepository, id, user, quizID string, questionIDs []string) {
	t.Helper()
	err := repo.Create(context.Background(), &models.QuizSession{
		ID:     id,
		UserID: user,
		QuizID: quizID,
		Name:   "run-" + id,
		Mode:   models.ModeAll,
	}, questionIDs)
	require.NoError(t, err)
}

func ids(questions []models.Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestQuizRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewQuizRepository(db)

	multi := models.Question{
		ID:             "multi",
		Prompt:         "Pick primes",
		Options:        []string{"2", "3", "4", "5"},
		CorrectOptions: []int{0, 1, 3},
		Category:       "math",
	}
	quiz := &models.Quiz{ID: "quiz-1", OwnerID: "alice", Title: "Numbers"}
	require.NoError(t, repo.Create(ctx, quiz, []models.Question{
		{ID: "single", Prompt: "1+1", Options: []string{"1", "2"}, CorrectOptions: []int{1}},
		multi,
	}))

	got, err := repo.GetQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, []string{"single", "multi"}, got.QuestionIDs)

	owner, err := repo.OwnerOf(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	questions, err := repo.QuestionsOf(ctx, "quiz-1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, []int{1}, questions[0].CorrectOptions)
	assert.Equal(t, multi.Options, questions[1].Options)
	assert.Equal(t, []int{0, 1, 3}, questions[1].CorrectOptions)
	assert.True(t, questions[1].IsMultiSelect())

	_, err = repo.GetQuiz(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.OwnerOf(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = repo.Create(ctx, &models.Quiz{ID: "quiz-1", OwnerID: "bob", Title: "dup"}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestSessionCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	repo := NewSessionRepository(db)

	createSession(t, repo, "s1", "alice", "quiz", ids(questions))

	state, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, state.Session.Status)
	assert.Equal(t, models.ModeAll, state.Session.Mode)
	assert.Nil(t, state.Session.CompletedAt)
	require.Len(t, state.Items, 3)
	for i, item := range state.Items {
		assert.Equal(t, i+1, item.Position)
		assert.Equal(t, questions[i].ID, item.QuestionID)
		assert.False(t, item.Answered())
	}
	assert.Equal(t, 1, state.Frontier())

	owner, err := repo.OwnerOf(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSessionCreateRejects(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 2)
	repo := NewSessionRepository(db)

	createSession(t, repo, "s1", "alice", "quiz", ids(questions))

	t.Run("duplicate name", func(t *testing.T) {
		err := repo.Create(ctx, &models.QuizSession{ID: "s2", UserID: "alice", QuizID: "quiz", Name: "run-s1", Mode: models.ModeAll}, ids(questions))
		assert.ErrorIs(t, err, models.ErrSessionNameTaken)
		_, err = repo.Get(ctx, "s2")
		assert.ErrorIs(t, err, models.ErrNotFound, "failed create leaves nothing behind")
	})

	t.Run("same name for another user", func(t *testing.T) {
		err := repo.Create(ctx, &models.QuizSession{ID: "s3", UserID: "bob", QuizID: "quiz", Name: "run-s1", Mode: models.ModeAll}, ids(questions))
		assert.NoError(t, err)
	})

	t.Run("repeated question", func(t *testing.T) {
		err := repo.Create(ctx, &models.QuizSession{ID: "s4", UserID: "alice", QuizID: "quiz", Name: "dups", Mode: models.ModeAll},
			[]string{questions[0].ID, questions[0].ID})
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
		_, err = repo.Get(ctx, "s4")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		err := repo.Create(ctx, &models.QuizSession{ID: "s5", UserID: "alice", QuizID: "quiz", Name: "empty"}, nil)
		assert.ErrorIs(t, err, models.ErrEmptySelection)
	})
}

func TestMarkAnswered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	repo := NewSessionRepository(db)
	createSession(t, repo, "s1", "alice", "quiz", ids(questions))

	_, err := repo.MarkAnswered(ctx, "s1", 2, true, []int{0}, 100)
	assert.ErrorIs(t, err, models.ErrPositionNotFrontier)

	state, err := repo.MarkAnswered(ctx, "s1", 1, true, []int{2, 0}, 1500)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Frontier())
	assert.Equal(t, []int{0, 2}, state.Items[0].Answer.Chosen)

	_, err = repo.MarkAnswered(ctx, "s1", 1, false, []int{1}, 10)
	assert.ErrorIs(t, err, models.ErrAlreadyAnswered)

	_, err = repo.MarkAnswered(ctx, "s1", 9, false, []int{1}, 10)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	stored, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	answer := stored.Items[0].Answer
	require.NotNil(t, answer)
	assert.True(t, answer.Correct, "second submit left state unchanged")
	assert.Equal(t, []int{0, 2}, answer.Chosen)
	assert.Equal(t, int64(1500), answer.DurationMs)
	assert.False(t, answer.AnsweredAt.IsZero())
	assert.Nil(t, stored.Items[1].Answer)
}

func TestMarkAnsweredConcurrentSubmit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 2)
	repo := NewSessionRepository(db)
	createSession(t, repo, "s1", "alice", "quiz", ids(questions))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		stale     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.MarkAnswered(ctx, "s1", 1, true, []int{0}, 10)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, models.ErrAlreadyAnswered):
				stale++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, stale)

	state, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Frontier())
}

func TestToggleBookmark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	repo := NewSessionRepository(db)
	createSession(t, repo, "s1", "alice", "quiz", ids(questions))

	on, err := repo.ToggleBookmark(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := repo.ToggleBookmark(ctx, "s1", 2)
	require.NoError(t, err)
	assert.False(t, off)

	_, err = repo.ToggleBookmark(ctx, "s1", 4)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = repo.ToggleBookmark(ctx, "missing", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 2)
	repo := NewSessionRepository(db)

	t.Run("complete requires every answer", func(t *testing.T) {
		createSession(t, repo, "c1", "alice", "quiz", ids(questions))

		_, err := repo.SetStatus(ctx, "c1", models.StatusCompleted)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		for pos := 1; pos <= 2; pos++ {
			_, err := repo.MarkAnswered(ctx, "c1", pos, true, []int{0}, 10)
			require.NoError(t, err)
		}

		state, err := repo.SetStatus(ctx, "c1", models.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, state.Session.Status)
		assert.NotNil(t, state.Session.CompletedAt)

		_, err = repo.SetStatus(ctx, "c1", models.StatusAbandoned)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("abandon any time", func(t *testing.T) {
		createSession(t, repo, "a1", "alice", "quiz", ids(questions))
		_, err := repo.MarkAnswered(ctx, "a1", 1, true, []int{0}, 10)
		require.NoError(t, err)

		state, err := repo.SetStatus(ctx, "a1", models.StatusAbandoned)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAbandoned, state.Session.Status)
		assert.Equal(t, 2, state.Frontier())

		_, err = repo.MarkAnswered(ctx, "a1", 2, true, []int{0}, 10)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		_, err = repo.SetStatus(ctx, "a1", models.StatusActive)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestListRenameDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	repo := NewSessionRepository(db)

	createSession(t, repo, "s1", "alice", "quiz", ids(questions))
	createSession(t, repo, "s2", "alice", "quiz", ids(questions)[:2])
	createSession(t, repo, "other", "bob", "quiz", ids(questions))

	_, err := repo.MarkAnswered(ctx, "s1", 1, true, []int{0}, 10)
	require.NoError(t, err)
	_, err = repo.MarkAnswered(ctx, "s1", 2, false, []int{0}, 10)
	require.NoError(t, err)

	history, err := repo.ListForQuiz(ctx, "alice", "quiz")
	require.NoError(t, err)
	require.Len(t, history, 2)

	byID := map[string]models.SessionSummary{}
	for _, h := range history {
		byID[h.Session.ID] = h
	}
	assert.Equal(t, 3, byID["s1"].Total)
	assert.Equal(t, 2, byID["s1"].Answered)
	assert.Equal(t, 1, byID["s1"].Correct)
	assert.Equal(t, 2, byID["s2"].Total)
	assert.Equal(t, 0, byID["s2"].Answered)

	require.NoError(t, repo.Rename(ctx, "s1", "first attempt"))
	state, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "first attempt", state.Session.Name)

	assert.ErrorIs(t, repo.Rename(ctx, "s2", "first attempt"), models.ErrSessionNameTaken)
	assert.ErrorIs(t, repo.Rename(ctx, "missing", "x"), models.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "s2"))
	_, err = repo.Get(ctx, "s2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "s2"), models.ErrNotFound)
}

func TestReferencedQuestionCannotBeDeleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	repo := NewSessionRepository(db)

	createSession(t, repo, "s1", "alice", "quiz", ids(questions)[:2])

	_, err := db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, questions[1].ID)
	require.Error(t, err, "deleting a question used by a session must fail")

	_, err = db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, questions[2].ID)
	require.NoError(t, err, "unused question should delete")

	state, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	assert.Equal(t, questions[1].ID, state.Items[1].QuestionID)

	_, err = repo.MarkAnswered(ctx, "s1", 1, true, []int{0}, 10)
	require.NoError(t, err)
	state, err = repo.MarkAnswered(ctx, "s1", 2, false, []int{2}, 10)
	require.NoError(t, err)
	item, ok := state.Item(2)
	require.True(t, ok)
	assert.Equal(t, questions[1].ID, item.QuestionID)
	assert.True(t, item.AnsweredIncorrectly())
	assert.True(t, state.FullyAnswered())
}

func TestAnswerStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	questions := seedQuiz(t, db, "quiz", "alice", 3)
	other := seedQuiz(t, db, "other", "alice", 1)
	repo := NewSessionRepository(db)

	createSession(t, repo, "s1", "alice", "quiz", ids(questions))
	createSession(t, repo, "s2", "alice", "quiz", ids(questions)[:2])
	createSession(t, repo, "b1", "bob", "quiz", ids(questions)[2:])
	createSession(t, repo, "o1", "alice", "other", ids(other))

	answer := func(sessionID string, position int, correct bool) {
		t.Helper()
		_, err := repo.MarkAnswered(ctx, sessionID, position, correct, []int{0}, 10)
		require.NoError(t, err)
	}
	answer("s1", 1, true)
	answer("s1", 2, false)
	answer("s2", 1, false)
	answer("s2", 2, false)
	answer("b1", 1, false)
	answer("o1", 1, false)

	stats, err := repo.QuestionStats(ctx, "alice", "quiz")
	require.NoError(t, err)
	assert.Equal(t, []models.QuestionStat{
		{QuestionID: questions[0].ID, Answered: 2, Incorrect: 1},
		{QuestionID: questions[1].ID, Answered: 2, Incorrect: 2},
	}, stats, "unanswered items, other users and other quizzes are excluded")

	stats, err = repo.QuestionStats(ctx, "carol", "quiz")
	require.NoError(t, err)
	assert.Empty(t, stats)

	n, err := repo.CountForQuiz(ctx, "alice", "quiz")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.CountForQuiz(ctx, "carol", "quiz")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	setDay := func(sessionID string, at time.Time) {
		t.Helper()
		_, err := db.ExecContext(ctx, `UPDATE session_items SET answered_at = ? WHERE session_id = ? AND answered = ?`,
			at, sessionID, true)
		require.NoError(t, err)
	}
	setDay("s1", time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))
	setDay("s2", time.Date(2026, 1, 3, 23, 30, 0, 0, time.UTC))

	daily, err := repo.DailyStats(ctx, "alice", "quiz")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyStat{
		{Day: "2026-01-02", Answered: 2, Correct: 1},
		{Day: "2026-01-03", Answered: 2, Correct: 0},
	}, daily)
}

func TestEncodeOptions(t *testing.T) {
	assert.Equal(t, "", encodeOptions(nil))
	assert.Equal(t, "0,2,5", encodeOptions([]int{5, 0, 2}))
	assert.Nil(t, decodeOptions(""))
	assert.Equal(t, []int{0, 2, 5}, decodeOptions("0,2,5"))
}
