package models

import (
	"sort"
	"time"
)

// SelectionMode determines which questions a new session contains
type SelectionMode string

const (
	ModeAll             SelectionMode = "all"
	ModeRandomN         SelectionMode = "random-n"
	ModeRetryIncorrect  SelectionMode = "retry-incorrect"
	ModeRetryBookmarked SelectionMode = "retry-bookmarked"
	ModeUnanswered      SelectionMode = "unanswered"
	ModeIncorrect       SelectionMode = "incorrect"
)

// Valid reports whether m is a known selection mode
func (m SelectionMode) Valid() bool {
	switch m {
	case ModeAll, ModeRandomN, ModeRetryIncorrect, ModeRetryBookmarked, ModeUnanswered, ModeIncorrect:
		return true
	}
	return false
}

// IsRetry reports whether the mode derives its questions from an earlier session
func (m SelectionMode) IsRetry() bool {
	return m == ModeRetryIncorrect || m == ModeRetryBookmarked
}

// UsesHistory reports whether the mode ranks questions by the user's answers
// across all earlier sessions of the quiz
func (m SelectionMode) UsesHistory() bool {
	return m == ModeUnanswered || m == ModeIncorrect
}

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// QuizSession is one user's attempt at a quiz
type QuizSession struct {
	ID              string
	UserID          string
	QuizID          string
	Name            string
	Mode            SelectionMode
	Status          SessionStatus
	SourceSessionID string // empty unless created by a retry
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Answer is the write-once record of a submitted answer
type Answer struct {
	Correct    bool
	Chosen     []int // sorted, deduplicated option indices
	DurationMs int64
	AnsweredAt time.Time
}

// SessionItem is one question slot in a session. Answer is nil until the slot
// is answered and never changes afterwards.
type SessionItem struct {
	Position   int // 1-based
	QuestionID string
	Answer     *Answer
	Bookmarked bool
}

// Answered reports whether the item has been answered
func (i SessionItem) Answered() bool {
	return i.Answer != nil
}

// AnsweredIncorrectly reports whether the item has a wrong answer
func (i SessionItem) AnsweredIncorrectly() bool {
	return i.Answer != nil && !i.Answer.Correct
}

// SessionState is a session together with its ordered items
type SessionState struct {
	Session QuizSession
	Items   []SessionItem
}

// Total returns the number of items in the session
func (s *SessionState) Total() int {
	return len(s.Items)
}

// Frontier returns the first unanswered position, or one past the last
// position when every item is answered.
func (s *SessionState) Frontier() int {
	return Frontier(s.Items)
}

// FullyAnswered reports whether every item has been answered
func (s *SessionState) FullyAnswered() bool {
	for _, item := range s.Items {
		if !item.Answered() {
			return false
		}
	}
	return true
}

// Item returns the item stored at a 1-based position. Items are kept in
// position order.
func (s *SessionState) Item(position int) (SessionItem, bool) {
	i, ok := s.index(position)
	if !ok {
		return SessionItem{}, false
	}
	return s.Items[i], true
}

// SetAnswer records answer on the item at position
func (s *SessionState) SetAnswer(position int, answer *Answer) bool {
	i, ok := s.index(position)
	if ok {
		s.Items[i].Answer = answer
	}
	return ok
}

func (s *SessionState) index(position int) (int, bool) {
	i := sort.Search(len(s.Items), func(i int) bool { return s.Items[i].Position >= position })
	if position < 1 || i == len(s.Items) || s.Items[i].Position != position {
		return 0, false
	}
	return i, true
}

// Frontier is the position of the first unanswered item, or one past the last
// position when every item is answered. Answered items always form a prefix,
// so with positions 1..N this is 1 plus the number of leading answered items.
func Frontier(items []SessionItem) int {
	for _, item := range items {
		if !item.Answered() {
			return item.Position
		}
	}
	if len(items) == 0 {
		return 1
	}
	return items[len(items)-1].Position + 1
}

// SessionSummary is a history entry for one session
type SessionSummary struct {
	Session  QuizSession
	Total    int
	Answered int
	Correct  int
}
