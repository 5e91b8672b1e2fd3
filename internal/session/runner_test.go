package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/studycoach/internal/grading"
	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
)

type fakeGrader struct {
	fn func(q quizgen.Question, answer string) (grading.Result, error)
}

func (f fakeGrader) Grade(_ context.Context, q quizgen.Question, answer string) (grading.Result, error) {
	return f.fn(q, answer)
}

// gradeByAnswer marks an answer correct when it equals the reference.
var gradeByAnswer = fakeGrader{fn: func(q quizgen.Question, answer string) (grading.Result, error) {
	if answer == q.Answer {
		return grading.Result{Correct: true, Feedback: "Nice."}, nil
	}
	return grading.Result{Correct: false, Feedback: "The correct answer is " + q.Answer + "."}, nil
}}

func questions(prompts ...string) []quizgen.Question {
	qs := make([]quizgen.Question, len(prompts))
	for i, p := range prompts {
		qs[i] = quizgen.Question{
			ID:     quizgen.QuestionID(p),
			Kind:   quizgen.KindShort,
			Prompt: p,
			Answer: "yes",
		}
	}
	return qs
}

// fakeClock advances a fixed step on every reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func testConfig(store progress.Store, grader grading.Grader) Config {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), step: time.Second}
	return Config{
		Topic:        "bayes",
		Difficulty:   quizgen.DifficultyMedium,
		AvoidMode:    progress.AvoidAll,
		FeedbackMode: FeedbackImmediate,
		Grader:       grader,
		Store:        store,
		Now:          clock.Now,
	}
}

func TestRunner_FullQuiz(t *testing.T) {
	store := progress.NewMemoryStore()
	r := New(testConfig(store, gradeByAnswer), questions("Q1?", "Q2?"))

	q, err := r.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if q.Prompt != "Q1?" {
		t.Fatalf("expected first question, got %q", q.Prompt)
	}

	out, err := r.Submit(context.Background(), "yes")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Correct || !out.ShowFeedback {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.ResponseMs <= 0 {
		t.Fatalf("expected positive response time, got %d", out.ResponseMs)
	}

	q, more := r.Advance()
	if !more || q.Prompt != "Q2?" {
		t.Fatalf("expected second question, got %v more=%v", q, more)
	}

	if _, err := r.Submit(context.Background(), "no"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if q, more := r.Advance(); more || q != nil {
		t.Fatal("expected quiz exhausted")
	}

	sum, err := r.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if sum.Correct != 1 || sum.Total != 2 || sum.Raw != "1/2" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Score != 50 || !strings.HasPrefix(sum.Band, "Fair progress") {
		t.Fatalf("unexpected score/band: %v %q", sum.Score, sum.Band)
	}
	if sum.StoreErr != nil {
		t.Fatalf("unexpected store error: %v", sum.StoreErr)
	}

	attempts := store.Attempts()
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].SessionID != r.ID() || attempts[0].QuestionID != quizgen.QuestionID("Q1?") {
		t.Fatalf("unexpected attempt: %+v", attempts[0])
	}

	sessions := store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	sess := sessions[0]
	if sess.ID != r.ID() || sess.Details.Raw != "1/2" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Details.AvoidMode != "all" || sess.Details.FeedbackMode != "immediate" || sess.Details.Difficulty != "medium" {
		t.Fatalf("unexpected details: %+v", sess.Details)
	}
	if !sess.FinishedAt.After(sess.StartedAt) {
		t.Fatalf("expected finished after started: %+v", sess)
	}
}

func TestRunner_DoubleSubmitRejected(t *testing.T) {
	r := New(testConfig(progress.NewMemoryStore(), gradeByAnswer), questions("Q1?"))
	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Submit(context.Background(), "yes"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := r.Submit(context.Background(), "changed my mind"); !errors.Is(err, ErrNotPresenting) {
		t.Fatalf("expected ErrNotPresenting, got %v", err)
	}
}

func TestRunner_GradingFailureContinues(t *testing.T) {
	store := progress.NewMemoryStore()
	calls := 0
	flaky := fakeGrader{fn: func(q quizgen.Question, answer string) (grading.Result, error) {
		calls++
		if calls == 2 {
			return grading.Result{}, errors.New("provider down")
		}
		return grading.Result{Correct: true, Feedback: "Nice."}, nil
	}}

	r := New(testConfig(store, flaky), questions("Q1?", "Q2?", "Q3?", "Q4?"))
	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var outcomes []Outcome
	for {
		out, err := r.Submit(context.Background(), "yes")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		outcomes = append(outcomes, out)
		if _, more := r.Advance(); !more {
			break
		}
	}

	sum, err := r.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if !outcomes[1].GradingFailed || outcomes[1].Correct {
		t.Fatalf("expected graded-failed outcome: %+v", outcomes[1])
	}
	if !strings.Contains(outcomes[1].Feedback, "grading unavailable") {
		t.Fatalf("expected placeholder feedback, got %q", outcomes[1].Feedback)
	}
	if sum.Raw != "3/4" {
		t.Fatalf("expected 3/4, got %q", sum.Raw)
	}
	if len(store.Attempts()) != 4 {
		t.Fatalf("expected all 4 attempts recorded, got %d", len(store.Attempts()))
	}
	if len(store.Sessions()) != 1 {
		t.Fatalf("expected 1 session, got %d", len(store.Sessions()))
	}
}

func TestRunner_EndFeedbackModeHidesFeedback(t *testing.T) {
	cfg := testConfig(progress.NewMemoryStore(), gradeByAnswer)
	cfg.FeedbackMode = FeedbackEnd
	r := New(cfg, questions("Q1?"))

	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := r.Submit(context.Background(), "yes")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.ShowFeedback {
		t.Fatal("expected feedback hidden in end mode")
	}
	if out.Feedback == "" {
		t.Fatal("feedback must still be captured for the summary")
	}
}

func TestRunner_AbandonLeavesNoSessionRow(t *testing.T) {
	store := progress.NewMemoryStore()
	r := New(testConfig(store, gradeByAnswer), questions("Q1?", "Q2?"))

	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Submit(context.Background(), "yes"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Runner dropped here, mid-quiz.

	if len(store.Attempts()) != 1 {
		t.Fatalf("expected answered attempt kept, got %d", len(store.Attempts()))
	}
	if len(store.Sessions()) != 0 {
		t.Fatalf("expected no session row, got %d", len(store.Sessions()))
	}
}

type brokenStore struct {
	progress.Store
}

func (b *brokenStore) RecordAttempt(context.Context, *progress.Attempt) error {
	return errors.New("disk full")
}

func (b *brokenStore) RecordSession(context.Context, *progress.Session) error {
	return errors.New("disk full")
}

func TestRunner_StoreFailureIsBestEffort(t *testing.T) {
	store := &brokenStore{Store: progress.NewMemoryStore()}
	r := New(testConfig(store, gradeByAnswer), questions("Q1?"))

	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Submit(context.Background(), "yes"); err != nil {
		t.Fatalf("submit must not fail on store errors: %v", err)
	}
	r.Advance()

	sum, err := r.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish must not fail on store errors: %v", err)
	}
	if sum.StoreErr == nil {
		t.Fatal("expected store error surfaced on summary")
	}
	if sum.Raw != "1/1" {
		t.Fatalf("expected quiz completed, got %q", sum.Raw)
	}
}

func TestRunner_Guards(t *testing.T) {
	r := New(testConfig(progress.NewMemoryStore(), gradeByAnswer), nil)
	if _, err := r.Start(); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	r = New(testConfig(progress.NewMemoryStore(), gradeByAnswer), questions("Q1?"))
	if _, err := r.Submit(context.Background(), "early"); !errors.Is(err, ErrNotPresenting) {
		t.Fatalf("expected ErrNotPresenting before start, got %v", err)
	}
	if _, err := r.Finish(context.Background()); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished, got %v", err)
	}
	if _, err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "Needs revision"},
		{49.9, "Needs revision"},
		{50, "Fair progress"},
		{79.9, "Fair progress"},
		{80, "Good progress"},
		{100, "Good progress"},
	}
	for _, tt := range tests {
		if got := Band(tt.score); !strings.HasPrefix(got, tt.want) {
			t.Errorf("Band(%v) = %q, want prefix %q", tt.score, got, tt.want)
		}
	}
}
