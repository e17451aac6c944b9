package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"quizengine/internal/models"
)

// Dashboard aggregates one user's progress on a quiz over all sessions
type Dashboard struct {
	QuizID          string
	Sessions        int
	TotalQuestions  int
	UniqueAnswered  int
	Answered        int
	Correct         int
	AccuracyPercent int // 0 when nothing is answered
	PerCategory     []models.CategoryStat
	Daily           []models.DailyStat
}

// BuildDashboard combines the quiz questions with the user's answer history.
// Questions without a category are left out of PerCategory.
func BuildDashboard(quizID string, sessions int, questions []models.Question, stats []models.QuestionStat, daily []models.DailyStat) *Dashboard {
	byQuestion := make(map[string]models.QuestionStat, len(stats))
	for _, st := range stats {
		byQuestion[st.QuestionID] = st
	}

	d := &Dashboard{
		QuizID:         quizID,
		Sessions:       sessions,
		TotalQuestions: len(questions),
		Daily:          daily,
	}
	byCategory := make(map[string]*models.CategoryStat)
	for _, q := range questions {
		st := byQuestion[q.ID]
		correct := st.Answered - st.Incorrect
		if st.Answered > 0 {
			d.UniqueAnswered++
		}
		d.Answered += st.Answered
		d.Correct += correct

		if q.Category == "" {
			continue
		}
		cat, ok := byCategory[q.Category]
		if !ok {
			cat = &models.CategoryStat{Category: q.Category}
			byCategory[q.Category] = cat
		}
		cat.Questions++
		if st.Answered > 0 {
			cat.UniqueAnswered++
		}
		cat.Answered += st.Answered
		cat.Correct += correct
	}
	d.AccuracyPercent = percent(d.Correct, d.Answered)

	for _, cat := range byCategory {
		d.PerCategory = append(d.PerCategory, *cat)
	}
	sort.Slice(d.PerCategory, func(i, j int) bool {
		return d.PerCategory[i].Category < d.PerCategory[j].Category
	})
	return d
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// Dashboard returns the caller's aggregate progress on quizID
func (s *QuizSessionService) Dashboard(ctx context.Context, userID, quizID string) (*Dashboard, error) {
	if err := s.gate.AuthorizeQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}

	questions, err := s.quizzes.QuestionsOf(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	stats, err := s.sessions.QuestionStats(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question stats: %w", err)
	}
	daily, err := s.sessions.DailyStats(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	sessions, err := s.sessions.CountForQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	return BuildDashboard(quizID, sessions, questions, stats, daily), nil
}
