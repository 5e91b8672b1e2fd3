package adaptive

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
)

func TestDifficultyForAccuracy(t *testing.T) {
	tests := []struct {
		acc  float64
		want quizgen.Difficulty
	}{
		{0.0, quizgen.DifficultyEasy},
		{0.49, quizgen.DifficultyEasy},
		{0.5, quizgen.DifficultyMedium},
		{0.79, quizgen.DifficultyMedium},
		{0.8, quizgen.DifficultyHard},
		{1.0, quizgen.DifficultyHard},
	}
	for _, tt := range tests {
		if got := DifficultyForAccuracy(tt.acc); got != tt.want {
			t.Errorf("DifficultyForAccuracy(%v) = %v, want %v", tt.acc, got, tt.want)
		}
	}
}

func seedAttempt(t *testing.T, s progress.Store, qid, prompt string, correct bool) {
	t.Helper()
	err := s.RecordAttempt(context.Background(), &progress.Attempt{
		SessionID:  "sess-1",
		Topic:      "bayes",
		QuestionID: qid,
		Prompt:     prompt,
		Kind:       "short",
		Difficulty: "medium",
		Answer:     "a",
		Correct:    correct,
		ResponseMs: 500,
	})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
}

func TestPlan_FreshTopicDefaultsToMedium(t *testing.T) {
	sel := NewSelector(progress.NewMemoryStore())

	plan, err := sel.Plan(context.Background(), "bayes", progress.AvoidAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Difficulty != quizgen.DifficultyMedium {
		t.Fatalf("expected medium for fresh topic, got %v", plan.Difficulty)
	}
	if plan.HasHistory {
		t.Fatal("expected no history")
	}
	if len(plan.Avoid) != 0 {
		t.Fatalf("expected empty avoid list, got %v", plan.Avoid)
	}
}

func TestPlan_DerivesFromHistory(t *testing.T) {
	store := progress.NewMemoryStore()
	// 1/4 correct puts the topic in the easy band.
	seedAttempt(t, store, "q1", "What is a prior?", true)
	seedAttempt(t, store, "q2", "State Bayes' theorem.", false)
	seedAttempt(t, store, "q3", "Define likelihood.", false)
	seedAttempt(t, store, "q4", "Define evidence.", false)

	sel := NewSelector(store)
	plan, err := sel.Plan(context.Background(), "bayes", progress.AvoidAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Difficulty != quizgen.DifficultyEasy {
		t.Fatalf("expected easy, got %v", plan.Difficulty)
	}
	if !plan.HasHistory || plan.Accuracy != 0.25 {
		t.Fatalf("unexpected accuracy: %+v", plan)
	}
	if len(plan.Avoid) != 4 {
		t.Fatalf("expected 4 avoid prompts, got %v", plan.Avoid)
	}
}

func TestPlan_AvoidCorrectMode(t *testing.T) {
	store := progress.NewMemoryStore()
	seedAttempt(t, store, "q1", "What is a prior?", true)
	seedAttempt(t, store, "q2", "State Bayes' theorem.", false)

	sel := NewSelector(store)
	plan, err := sel.Plan(context.Background(), "bayes", progress.AvoidCorrect)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Avoid) != 1 || plan.Avoid[0] != "What is a prior?" {
		t.Fatalf("expected only the answered question avoided, got %v", plan.Avoid)
	}
}

type failingStore struct {
	progress.Store
}

func (f *failingStore) AccuracyForTopic(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("db locked")
}

func (f *failingStore) HistoryForTopic(context.Context, string, progress.AvoidMode) ([]string, error) {
	return nil, errors.New("db locked")
}

func TestPlan_DegradesOnStoreFailure(t *testing.T) {
	sel := NewSelector(&failingStore{Store: progress.NewMemoryStore()})

	plan, err := sel.Plan(context.Background(), "bayes", progress.AvoidAll)
	if err == nil {
		t.Fatal("expected error to surface for warning")
	}
	if plan.Difficulty != quizgen.DifficultyMedium {
		t.Fatalf("expected usable medium plan, got %v", plan.Difficulty)
	}
	if len(plan.Avoid) != 0 {
		t.Fatalf("expected empty avoid list, got %v", plan.Avoid)
	}
}
