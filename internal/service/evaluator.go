package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"quizengine/internal/models"
)

// DefaultMaxAnswerDuration is the longest time recorded for a single answer.
// A configured cap may be lower but never higher.
const DefaultMaxAnswerDuration = 5 * time.Minute

// AnswerResult is the feedback for a submitted answer
type AnswerResult struct {
	Position       int
	Correct        bool
	Chosen         []int
	CorrectOptions []int
	Explanation    string
	Frontier       int
	FullyAnswered  bool
}

// Evaluator scores answers and records them through the store
type Evaluator struct {
	store         SessionStore
	maxDurationMs int64
}

// NewEvaluator creates an evaluator that clamps reported durations to maxDuration
func NewEvaluator(store SessionStore, maxDuration time.Duration) *Evaluator {
	if maxDuration <= 0 || maxDuration > DefaultMaxAnswerDuration {
		maxDuration = DefaultMaxAnswerDuration
	}
	return &Evaluator{store: store, maxDurationMs: maxDuration.Milliseconds()}
}

// Submit scores chosen against question and records it at position. The
// checks here are repeated inside the store transaction, so a stale state
// only makes the error surface earlier.
func (e *Evaluator) Submit(ctx context.Context, state *models.SessionState, question *models.Question, position int, chosen []int, durationMs int64) (*AnswerResult, error) {
	if state.Session.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: session is %s", models.ErrInvalidTransition, state.Session.Status)
	}

	item, ok := state.Item(position)
	if !ok {
		return nil, fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, position)
	}
	if item.QuestionID != question.ID {
		return nil, fmt.Errorf("%w: question %s is not at position %d", models.ErrInvalidArgument, question.ID, position)
	}
	if item.Answered() {
		return nil, models.ErrAlreadyAnswered
	}
	if position != state.Frontier() {
		return nil, models.ErrPositionNotFrontier
	}

	normalized, err := normalizeChoice(question, chosen)
	if err != nil {
		return nil, err
	}
	correct := slices.Equal(normalized, sortedCopy(question.CorrectOptions))

	updated, err := e.store.MarkAnswered(ctx, state.Session.ID, position, correct, normalized, e.clampDuration(durationMs))
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		Position:       position,
		Correct:        correct,
		Chosen:         normalized,
		CorrectOptions: sortedCopy(question.CorrectOptions),
		Explanation:    question.Explanation,
		Frontier:       updated.Frontier(),
		FullyAnswered:  updated.FullyAnswered(),
	}, nil
}

func (e *Evaluator) clampDuration(ms int64) int64 {
	return min(max(ms, 0), e.maxDurationMs)
}

// normalizeChoice validates chosen option indices and returns them as a
// sorted set
func normalizeChoice(question *models.Question, chosen []int) ([]int, error) {
	if len(chosen) == 0 {
		return nil, fmt.Errorf("%w: no option chosen", models.ErrInvalidArgument)
	}

	seen := make(map[int]bool, len(chosen))
	set := make([]int, 0, len(chosen))
	for _, idx := range chosen {
		if !question.ValidOption(idx) {
			return nil, fmt.Errorf("%w: option %d does not exist", models.ErrInvalidArgument, idx)
		}
		if !seen[idx] {
			seen[idx] = true
			set = append(set, idx)
		}
	}
	sort.Ints(set)
	return set, nil
}

func sortedCopy(ints []int) []int {
	out := append([]int(nil), ints...)
	sort.Ints(out)
	return out
}
