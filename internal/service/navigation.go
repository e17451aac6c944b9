package service

import (
	"fmt"
	"strconv"
	"strings"

	"quizengine/internal/models"
)

// IntentKind is the direction a caller asks to move in
type IntentKind string

const (
	IntentNext     IntentKind = "next"
	IntentPrevious IntentKind = "previous"
	IntentResume   IntentKind = "resume"
	IntentGoto     IntentKind = "goto"
)

// Intent is a navigation request. From is the position the caller is viewing
// (next/previous); Target is the requested position (goto).
type Intent struct {
	Kind   IntentKind
	From   int
	Target int
}

// ParseIntent reads "next", "previous", "resume" or "goto:k"
func ParseIntent(s string, from int) (Intent, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch IntentKind(s) {
	case IntentNext, IntentPrevious, IntentResume:
		return Intent{Kind: IntentKind(s), From: from}, nil
	}

	if rest, ok := strings.CutPrefix(s, string(IntentGoto)+":"); ok {
		k, err := strconv.Atoi(rest)
		if err != nil {
			return Intent{}, fmt.Errorf("%w: bad goto target %q", models.ErrInvalidArgument, rest)
		}
		return Intent{Kind: IntentGoto, From: from, Target: k}, nil
	}
	return Intent{}, fmt.Errorf("%w: unknown navigation intent %q", models.ErrInvalidArgument, s)
}

// Resolve maps an intent to the position to render. It never moves past the
// frontier and never past the last item.
func Resolve(state *models.SessionState, intent Intent) (int, error) {
	n := state.Total()
	if n == 0 {
		return 0, fmt.Errorf("%w: session has no items", models.ErrInvalidArgument)
	}

	// highest position that may be shown
	limit := min(state.Frontier(), n)

	switch intent.Kind {
	case IntentResume:
		return limit, nil

	case IntentNext, IntentPrevious:
		if intent.From < 1 || intent.From > n {
			return 0, fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, intent.From)
		}
		if intent.Kind == IntentNext {
			return min(intent.From+1, limit), nil
		}
		return min(max(1, intent.From-1), limit), nil

	case IntentGoto:
		if intent.Target < 1 {
			return 0, fmt.Errorf("%w: position %d out of range", models.ErrInvalidArgument, intent.Target)
		}
		return min(intent.Target, limit), nil
	}

	return 0, fmt.Errorf("%w: unknown navigation intent %q", models.ErrInvalidArgument, intent.Kind)
}
