// Package adaptive plans quiz difficulty and repeat avoidance from a
// student's recorded history.
package adaptive

import (
	"context"
	"fmt"

	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
)

// Accuracy thresholds for the difficulty bands.
const (
	easyBelow = 0.5
	hardFrom  = 0.8
)

// Plan is the history-derived input to quiz generation.
type Plan struct {
	Difficulty quizgen.Difficulty
	Avoid      []string
	// Accuracy is the all-time accuracy the difficulty was derived
	// from; HasHistory is false for a fresh topic.
	Accuracy   float64
	HasHistory bool
}

// DifficultyForAccuracy maps all-time accuracy to a difficulty band:
// below 0.5 easy, below 0.8 medium, otherwise hard.
func DifficultyForAccuracy(acc float64) quizgen.Difficulty {
	switch {
	case acc < easyBelow:
		return quizgen.DifficultyEasy
	case acc < hardFrom:
		return quizgen.DifficultyMedium
	default:
		return quizgen.DifficultyHard
	}
}

// Selector derives generation plans from the progress store.
type Selector struct {
	store progress.Store
}

func NewSelector(store progress.Store) *Selector {
	return &Selector{store: store}
}

// Plan builds the quiz plan for a topic. A topic with no history gets
// medium difficulty and an empty avoid list. Store failures degrade:
// the returned Plan is always usable, and the error reports what was
// skipped so the caller can warn.
func (s *Selector) Plan(ctx context.Context, topic string, mode progress.AvoidMode) (Plan, error) {
	plan := Plan{Difficulty: quizgen.DifficultyMedium}

	var firstErr error

	acc, ok, err := s.store.AccuracyForTopic(ctx, topic)
	if err != nil {
		firstErr = fmt.Errorf("load accuracy: %w", err)
	} else if ok {
		plan.Accuracy = acc
		plan.HasHistory = true
		plan.Difficulty = DifficultyForAccuracy(acc)
	}

	avoid, err := s.store.HistoryForTopic(ctx, topic, mode)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("load history: %w", err)
		}
	} else {
		plan.Avoid = avoid
	}

	return plan, firstErr
}
