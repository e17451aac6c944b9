package service

import (
	"fmt"
	"math"
	"sort"

	"quizengine/internal/models"
)

// CategoryAccuracy is the score within one question category
type CategoryAccuracy struct {
	Category string
	Correct  int
	Total    int
}

// Summary is the result of a session
type Summary struct {
	SessionID           string
	Status              models.SessionStatus
	ScorePercent        int
	Correct             int
	Answered            int
	Total               int
	TotalDurationMs     int64
	PerCategory         []CategoryAccuracy
	IncorrectPositions  []int
	BookmarkedPositions []int
}

// Summarize derives the results of a session. questions maps question ID to
// question and is only consulted for categories.
func Summarize(state *models.SessionState, questions map[string]models.Question) (*Summary, error) {
	total := state.Total()
	if total == 0 {
		return nil, fmt.Errorf("%w: session has no items", models.ErrInvalidArgument)
	}

	summary := &Summary{
		SessionID: state.Session.ID,
		Status:    state.Session.Status,
		Total:     total,
	}

	byCategory := make(map[string]*CategoryAccuracy)
	for _, item := range state.Items {
		correct := false
		if item.Answer != nil {
			summary.Answered++
			summary.TotalDurationMs += item.Answer.DurationMs
			correct = item.Answer.Correct
			if correct {
				summary.Correct++
			} else {
				summary.IncorrectPositions = append(summary.IncorrectPositions, item.Position)
			}
		}
		if item.Bookmarked {
			summary.BookmarkedPositions = append(summary.BookmarkedPositions, item.Position)
		}

		category := questions[item.QuestionID].Category
		if category == "" {
			continue
		}
		acc, ok := byCategory[category]
		if !ok {
			acc = &CategoryAccuracy{Category: category}
			byCategory[category] = acc
		}
		acc.Total++
		if correct {
			acc.Correct++
		}
	}

	summary.ScorePercent = int(math.Round(100 * float64(summary.Correct) / float64(total)))

	for _, acc := range byCategory {
		summary.PerCategory = append(summary.PerCategory, *acc)
	}
	sort.Slice(summary.PerCategory, func(i, j int) bool {
		return summary.PerCategory[i].Category < summary.PerCategory[j].Category
	})

	return summary, nil
}

// indexQuestions maps questions by ID
func indexQuestions(questions []models.Question) map[string]models.Question {
	index := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		index[q.ID] = q
	}
	return index
}
