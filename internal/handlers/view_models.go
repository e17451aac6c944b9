package handlers

import (
	"math"
	"time"

	"quizengine/internal/models"
	"quizengine/internal/service"
)

type sessionView struct {
	ID              string     `json:"id"`
	QuizID          string     `json:"quizId"`
	Name            string     `json:"name"`
	Mode            string     `json:"mode"`
	Status          string     `json:"status"`
	SourceSessionID string     `json:"sourceSessionId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func newSessionView(s models.QuizSession) sessionView {
	return sessionView{
		ID:              s.ID,
		QuizID:          s.QuizID,
		Name:            s.Name,
		Mode:            string(s.Mode),
		Status:          string(s.Status),
		SourceSessionID: s.SourceSessionID,
		CreatedAt:       s.CreatedAt,
		CompletedAt:     s.CompletedAt,
	}
}

type questionView struct {
	ID             string   `json:"id"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	Category       string   `json:"category,omitempty"`
	MultiSelect    bool     `json:"multiSelect"`
	CorrectOptions []int    `json:"correctOptions,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

type answerView struct {
	Correct    bool      `json:"correct"`
	Chosen     []int     `json:"chosen"`
	DurationMs int64     `json:"durationMs"`
	AnsweredAt time.Time `json:"answeredAt"`
}

type renderView struct {
	Session       sessionView  `json:"session"`
	Position      int          `json:"position"`
	Total         int          `json:"total"`
	Frontier      int          `json:"frontier"`
	FullyAnswered bool         `json:"fullyAnswered"`
	Review        bool         `json:"review"`
	Bookmarked    bool         `json:"bookmarked"`
	Question      questionView `json:"question"`
	Answer        *answerView  `json:"answer,omitempty"`
}

func newRenderView(r *service.Render) *renderView {
	view := &renderView{
		Session:       newSessionView(r.Session),
		Position:      r.Position,
		Total:         r.Total,
		Frontier:      r.Frontier,
		FullyAnswered: r.FullyAnswered,
		Review:        r.Review(),
		Bookmarked:    r.Item.Bookmarked,
		Question: questionView{
			ID:             r.Question.ID,
			Prompt:         r.Question.Prompt,
			Options:        r.Question.Options,
			Category:       r.Question.Category,
			MultiSelect:    r.MultiSelect,
			CorrectOptions: r.Question.CorrectOptions,
			Explanation:    r.Question.Explanation,
		},
	}
	if a := r.Item.Answer; a != nil {
		view.Answer = &answerView{
			Correct:    a.Correct,
			Chosen:     a.Chosen,
			DurationMs: a.DurationMs,
			AnsweredAt: a.AnsweredAt,
		}
	}
	return view
}

type answerResultView struct {
	Position       int    `json:"position"`
	Correct        bool   `json:"correct"`
	Chosen         []int  `json:"chosen"`
	CorrectOptions []int  `json:"correctOptions"`
	Explanation    string `json:"explanation,omitempty"`
	Frontier       int    `json:"frontier"`
	FullyAnswered  bool   `json:"fullyAnswered"`
}

func newAnswerResultView(r *service.AnswerResult) answerResultView {
	return answerResultView{
		Position:       r.Position,
		Correct:        r.Correct,
		Chosen:         r.Chosen,
		CorrectOptions: r.CorrectOptions,
		Explanation:    r.Explanation,
		Frontier:       r.Frontier,
		FullyAnswered:  r.FullyAnswered,
	}
}

type categoryView struct {
	Category string `json:"category"`
	Correct  int    `json:"correct"`
	Total    int    `json:"total"`
}

type summaryView struct {
	SessionID           string         `json:"sessionId"`
	Status              string         `json:"status"`
	ScorePercent        int            `json:"scorePercent"`
	Correct             int            `json:"correct"`
	Answered            int            `json:"answered"`
	Total               int            `json:"total"`
	TotalDurationMs     int64          `json:"totalDurationMs"`
	PerCategory         []categoryView `json:"perCategory"`
	IncorrectPositions  []int          `json:"incorrectPositions"`
	BookmarkedPositions []int          `json:"bookmarkedPositions"`
}

func newSummaryView(s *service.Summary) summaryView {
	view := summaryView{
		SessionID:           s.SessionID,
		Status:              string(s.Status),
		ScorePercent:        s.ScorePercent,
		Correct:             s.Correct,
		Answered:            s.Answered,
		Total:               s.Total,
		TotalDurationMs:     s.TotalDurationMs,
		PerCategory:         make([]categoryView, 0, len(s.PerCategory)),
		IncorrectPositions:  nonNil(s.IncorrectPositions),
		BookmarkedPositions: nonNil(s.BookmarkedPositions),
	}
	for _, c := range s.PerCategory {
		view.PerCategory = append(view.PerCategory, categoryView{Category: c.Category, Correct: c.Correct, Total: c.Total})
	}
	return view
}

type historyEntryView struct {
	Session  sessionView `json:"session"`
	Total    int         `json:"total"`
	Answered int         `json:"answered"`
	Correct  int         `json:"correct"`
}

func newHistoryView(summaries []models.SessionSummary) []historyEntryView {
	views := make([]historyEntryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, historyEntryView{
			Session:  newSessionView(s.Session),
			Total:    s.Total,
			Answered: s.Answered,
			Correct:  s.Correct,
		})
	}
	return views
}

type categoryStatView struct {
	Category       string `json:"category"`
	Questions      int    `json:"questions"`
	UniqueAnswered int    `json:"uniqueAnswered"`
	Answered       int    `json:"answered"`
	Correct        int    `json:"correct"`
}

type dailyStatView struct {
	Day             string `json:"day"`
	Answered        int    `json:"answered"`
	Correct         int    `json:"correct"`
	AccuracyPercent int    `json:"accuracyPercent"`
}

type dashboardView struct {
	QuizID          string             `json:"quizId"`
	Sessions        int                `json:"sessions"`
	TotalQuestions  int                `json:"totalQuestions"`
	UniqueAnswered  int                `json:"uniqueAnswered"`
	Answered        int                `json:"answered"`
	Correct         int                `json:"correct"`
	AccuracyPercent int                `json:"accuracyPercent"`
	PerCategory     []categoryStatView `json:"perCategory"`
	Daily           []dailyStatView    `json:"daily"`
}

func newDashboardView(d *service.Dashboard) dashboardView {
	view := dashboardView{
		QuizID:          d.QuizID,
		Sessions:        d.Sessions,
		TotalQuestions:  d.TotalQuestions,
		UniqueAnswered:  d.UniqueAnswered,
		Answered:        d.Answered,
		Correct:         d.Correct,
		AccuracyPercent: d.AccuracyPercent,
		PerCategory:     make([]categoryStatView, 0, len(d.PerCategory)),
		Daily:           make([]dailyStatView, 0, len(d.Daily)),
	}
	for _, c := range d.PerCategory {
		view.PerCategory = append(view.PerCategory, categoryStatView(c))
	}
	for _, day := range d.Daily {
		accuracy := 0
		if day.Answered > 0 {
			accuracy = int(math.Round(100 * float64(day.Correct) / float64(day.Answered)))
		}
		view.Daily = append(view.Daily, dailyStatView{
			Day:             day.Day,
			Answered:        day.Answered,
			Correct:         day.Correct,
			AccuracyPercent: accuracy,
		})
	}
	return view
}

func nonNil(ints []int) []int {
	if ints == nil {
		return []int{}
	}
	return ints
}
