package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/studycoach/internal/llm"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxCalls = 3
	return cfg
}

func quizJSON(prompts ...string) json.RawMessage {
	var qs []map[string]any
	for _, p := range prompts {
		qs = append(qs, map[string]any{
			"type":        "short",
			"prompt":      p,
			"options":     []string{},
			"answer":      "an answer",
			"explanation": "because",
		})
	}
	raw, _ := json.Marshal(map[string]any{"questions": qs})
	return raw
}

func TestGenerate_HappyPath(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: quizJSON("Q1?", "Q2?", "Q3?", "Q4?")},
	)
	b := New(mock, testConfig())

	qs, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(qs))
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if qs[0].ID != QuestionID("Q1?") {
		t.Fatalf("expected derived ID, got %q", qs[0].ID)
	}
	if qs[0].Kind != KindShort {
		t.Fatalf("expected short kind, got %q", qs[0].Kind)
	}
}

func TestGenerate_DedupsAgainstAvoidList(t *testing.T) {
	// First batch repeats an avoided prompt (different casing); the
	// top-up call supplies the replacement.
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: quizJSON("what is a PRIOR?", "Q2?")},
		llm.MockResponse{Content: quizJSON("Q3?")},
	)
	b := New(mock, testConfig())

	qs, err := b.Generate(context.Background(), Request{
		Topic: "bayes",
		Count: 2,
		Avoid: []string{"What is a prior?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if NormalizePrompt(q.Prompt) == "what is a prior?" {
			t.Fatalf("avoided prompt leaked into quiz: %q", q.Prompt)
		}
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected a top-up call, got %d calls", mock.CallCount())
	}

	// The top-up prompt must list both the original avoid entry and
	// the question already accepted in this quiz.
	topUp := mock.Calls[1].Messages[0].Content
	if !strings.Contains(topUp, "What is a prior?") || !strings.Contains(topUp, "Q2?") {
		t.Fatalf("top-up prompt missing avoid entries:\n%s", topUp)
	}
}

func TestGenerate_DedupsWithinBatch(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: quizJSON("Q1?", "q1?", "Q2?")},
	)
	b := New(mock, testConfig())

	qs, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[1].Prompt != "Q2?" {
		t.Fatalf("expected duplicate collapsed, got %+v", qs)
	}
}

func TestGenerate_SkipsInvalidQuestions(t *testing.T) {
	bad := json.RawMessage(`{"questions":[
		{"type":"mcq","prompt":"Pick one","options":["A) x"],"answer":"A","explanation":""},
		{"type":"short","prompt":"Q1?","options":[],"answer":"yes","explanation":"ok"}
	]}`)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: bad},
	)
	b := New(mock, testConfig())

	qs, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 1 || qs[0].Prompt != "Q1?" {
		t.Fatalf("expected only the valid question, got %+v", qs)
	}
}

func TestGenerate_AllCallsFail(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	b := New(mock, testConfig())

	_, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 4})
	if err == nil {
		t.Fatal("expected error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if genErr.Calls != 3 || genErr.Got != 0 {
		t.Fatalf("unexpected error detail: %+v", genErr)
	}
}

func TestGenerate_ShortBatchAfterBudgetFails(t *testing.T) {
	// Three calls never get past 3 unique questions for a 4-question
	// quiz; the quiz must fail rather than silently run short.
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: quizJSON("Q1?", "Q2?", "Q3?")},
		llm.MockResponse{Content: quizJSON("q1?")}, // duplicate, no progress
		llm.MockResponse{Content: quizJSON("Q2?")},
	)
	b := New(mock, testConfig())

	qs, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 4})
	if err == nil {
		t.Fatalf("expected error for short batch, got %d questions", len(qs))
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if genErr.Requested != 4 || genErr.Got != 3 || genErr.Calls != 3 {
		t.Fatalf("unexpected error detail: %+v", genErr)
	}
	if qs != nil {
		t.Fatalf("expected no questions alongside the error, got %d", len(qs))
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected call budget exhausted, got %d calls", mock.CallCount())
	}
}

func TestGenerate_RejectsNonPositiveCount(t *testing.T) {
	b := New(llm.NewMockProvider(), testConfig())
	if _, err := b.Generate(context.Background(), Request{Topic: "bayes", Count: 0}); err == nil {
		t.Fatal("expected error for zero count")
	}
}

func TestQuestionID_StableAcrossRewording(t *testing.T) {
	a := QuestionID("What is  Bayes' theorem?")
	b := QuestionID("what is bayes' theorem?")
	if a != b {
		t.Fatalf("expected identical IDs, got %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-char ID, got %d", len(a))
	}
	if c := QuestionID("What is a prior?"); c == a {
		t.Fatal("distinct prompts must not collide")
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		q       rawQuestion
		wantErr bool
	}{
		{"valid short", rawQuestion{Type: "short", Prompt: "Q?", Answer: "a"}, false},
		{"valid mcq", rawQuestion{Type: "mcq", Prompt: "Q?", Options: []string{"A) x", "B) y"}, Answer: "A"}, false},
		{"empty prompt", rawQuestion{Type: "short", Prompt: "   ", Answer: "a"}, true},
		{"unknown type", rawQuestion{Type: "essay", Prompt: "Q?", Answer: "a"}, true},
		{"mcq too few options", rawQuestion{Type: "mcq", Prompt: "Q?", Options: []string{"A) x"}, Answer: "A"}, true},
		{"mcq blank option", rawQuestion{Type: "mcq", Prompt: "Q?", Options: []string{"A) x", "  "}, Answer: "A"}, true},
		{"short with options", rawQuestion{Type: "short", Prompt: "Q?", Options: []string{"A) x"}, Answer: "a"}, true},
		{"empty answer", rawQuestion{Type: "short", Prompt: "Q?", Answer: " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateQuestion(tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateQuestion() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildUserMessage_CapsAvoidList(t *testing.T) {
	var avoid []string
	for i := 0; i < 60; i++ {
		avoid = append(avoid, fmt.Sprintf("prior question %d", i))
	}

	msg := buildUserMessage(Request{Topic: "bayes", Difficulty: DifficultyMedium}, 4, avoid, 50)
	if !strings.Contains(msg, "prior question 49") {
		t.Fatal("expected 50th avoid entry present")
	}
	if strings.Contains(msg, "prior question 50") {
		t.Fatal("expected avoid list capped at 50 entries")
	}
}

func TestBuildUserMessage_DifficultySnippets(t *testing.T) {
	easy := buildUserMessage(Request{Topic: "bayes", Difficulty: DifficultyEasy}, 4, nil, 50)
	if !strings.Contains(easy, "struggling") {
		t.Fatal("expected easy snippet")
	}

	hard := buildUserMessage(Request{Topic: "bayes", Difficulty: DifficultyHard}, 4, nil, 50)
	if !strings.Contains(hard, "excelling") {
		t.Fatal("expected hard snippet")
	}

	medium := buildUserMessage(Request{Topic: "bayes", Difficulty: DifficultyMedium}, 4, nil, 50)
	if strings.Contains(medium, "Adjust difficulty") {
		t.Fatal("expected no difficulty snippet for medium")
	}
}
