package models

import "time"

// Quiz is an authored set of questions. Sessions read it, never modify it.
type Quiz struct {
	ID          string
	OwnerID     string
	Title       string
	QuestionIDs []string
	CreatedAt   time.Time
}

// Question is a single- or multi-select question. A question with more than
// one correct option is multi-select.
type Question struct {
	ID             string
	QuizID         string
	Prompt         string
	Options        []string
	CorrectOptions []int // sorted, 0-based indices into Options
	Category       string
	Explanation    string
}

// IsMultiSelect reports whether more than one option is correct
func (q *Question) IsMultiSelect() bool {
	return len(q.CorrectOptions) > 1
}

// ValidOption reports whether idx addresses one of the question's options
func (q *Question) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}
