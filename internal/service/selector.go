package service

import (
	"fmt"
	"math/rand"
	"sort"

	"quizengine/internal/models"
)

// Selector builds the ordered question list of a new session
type Selector struct {
	shuffle func(n int, swap func(i, j int))
}

// NewSelector creates a selector backed by math/rand
func NewSelector() *Selector {
	return &Selector{shuffle: rand.Shuffle}
}

// Select returns the question IDs for a new session in play order. source is
// the reference session for the retry modes; history holds the user's
// per-question answer counts for the unanswered and incorrect modes. Both are
// ignored by the other modes.
func (s *Selector) Select(quiz *models.Quiz, mode models.SelectionMode, count int, source *models.SessionState, history []models.QuestionStat) ([]string, error) {
	var selected []string

	switch mode {
	case models.ModeAll:
		selected = append(selected, quiz.QuestionIDs...)

	case models.ModeRandomN:
		if count <= 0 {
			return nil, fmt.Errorf("%w: question count must be positive", models.ErrInvalidArgument)
		}
		selected = append(selected, quiz.QuestionIDs...)
		s.shuffleIDs(selected)
		if count < len(selected) {
			selected = selected[:count]
		}
		return nonEmpty(selected)

	case models.ModeRetryIncorrect, models.ModeRetryBookmarked:
		if source == nil {
			return nil, fmt.Errorf("%w: retry requires a source session", models.ErrInvalidArgument)
		}
		if source.Session.QuizID != quiz.ID {
			return nil, fmt.Errorf("%w: source session belongs to another quiz", models.ErrInvalidArgument)
		}
		selected = retryCandidates(quiz, mode, source)

	case models.ModeUnanswered, models.ModeIncorrect:
		if count <= 0 {
			return nil, fmt.Errorf("%w: question count must be positive", models.ErrInvalidArgument)
		}
		return nonEmpty(s.fromHistory(quiz, mode, count, history))

	default:
		return nil, fmt.Errorf("%w: unknown selection mode %q", models.ErrInvalidArgument, mode)
	}

	s.shuffleIDs(selected)
	return nonEmpty(selected)
}

func (s *Selector) shuffleIDs(ids []string) {
	s.shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// retryCandidates picks questions from source that are still part of the quiz,
// each at most once
func retryCandidates(quiz *models.Quiz, mode models.SelectionMode, source *models.SessionState) []string {
	inQuiz := make(map[string]bool, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		inQuiz[id] = true
	}

	seen := make(map[string]bool)
	var ids []string
	for _, item := range source.Items {
		wanted := item.Bookmarked
		if mode == models.ModeRetryIncorrect {
			wanted = item.AnsweredIncorrectly()
		}
		if !wanted || !inQuiz[item.QuestionID] || seen[item.QuestionID] {
			continue
		}
		seen[item.QuestionID] = true
		ids = append(ids, item.QuestionID)
	}
	return ids
}

// fromHistory picks up to count preferred questions and tops the list up with
// the rest of the quiz. Unanswered prefers questions the user never answered;
// incorrect prefers questions with a wrong answer, lowest accuracy first.
func (s *Selector) fromHistory(quiz *models.Quiz, mode models.SelectionMode, count int, history []models.QuestionStat) []string {
	stats := make(map[string]models.QuestionStat, len(history))
	for _, st := range history {
		stats[st.QuestionID] = st
	}

	var preferred []string
	if mode == models.ModeUnanswered {
		for _, id := range quiz.QuestionIDs {
			if stats[id].Answered == 0 {
				preferred = append(preferred, id)
			}
		}
		s.shuffleIDs(preferred)
	} else {
		for _, id := range quiz.QuestionIDs {
			if stats[id].Incorrect > 0 {
				preferred = append(preferred, id)
			}
		}
		sort.SliceStable(preferred, func(i, j int) bool {
			a, b := stats[preferred[i]], stats[preferred[j]]
			if a.Accuracy() != b.Accuracy() {
				return a.Accuracy() < b.Accuracy()
			}
			return a.Incorrect > b.Incorrect
		})
	}
	if len(preferred) > count {
		preferred = preferred[:count]
	}
	if mode == models.ModeIncorrect {
		s.shuffleIDs(preferred)
	}

	taken := make(map[string]bool, len(preferred))
	for _, id := range preferred {
		taken[id] = true
	}
	var rest []string
	for _, id := range quiz.QuestionIDs {
		if !taken[id] {
			rest = append(rest, id)
		}
	}
	s.shuffleIDs(rest)

	if need := count - len(preferred); need < len(rest) {
		rest = rest[:need]
	}
	return append(preferred, rest...)
}

func nonEmpty(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, models.ErrEmptySelection
	}
	return ids, nil
}
