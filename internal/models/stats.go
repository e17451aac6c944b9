package models

// QuestionStat aggregates one user's answers to a question over every
// session of a quiz
type QuestionStat struct {
	QuestionID string
	Answered   int
	Incorrect  int
}

// Accuracy is the fraction of answers that were correct, 0 when unanswered
func (s QuestionStat) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Answered-s.Incorrect) / float64(s.Answered)
}

// CategoryStat aggregates answers within one question category
type CategoryStat struct {
	Category       string
	Questions      int // questions of the quiz in the category
	UniqueAnswered int
	Answered       int
	Correct        int
}

// DailyStat aggregates the answers given on one UTC day
type DailyStat struct {
	Day      string // YYYY-MM-DD
	Answered int
	Correct  int
}
