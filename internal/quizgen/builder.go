package quizgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/studycoach/internal/llm"
)

// Config controls the behavior of the Builder.
type Config struct {
	// MaxTokens is the token budget for one generation call.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxAvoid caps how many prior prompts are listed in the prompt.
	MaxAvoid int

	// MaxCalls bounds total generation calls for one quiz, including
	// top-up calls when the first batch comes back short.
	MaxCalls int
}

// DefaultConfig returns the recommended Builder settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.2,
		MaxAvoid:    50,
		MaxCalls:    3,
	}
}

// Builder generates quizzes through the LLM provider.
type Builder struct {
	provider llm.Provider
	config   Config
}

// New creates a Builder with the given provider and config.
func New(provider llm.Provider, cfg Config) *Builder {
	return &Builder{provider: provider, config: cfg}
}

// GenerationError reports that a quiz could not be filled.
type GenerationError struct {
	Requested int
	Got       int
	Calls     int
	Last      error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("quiz generation produced %d of %d questions after %d calls",
		e.Got, e.Requested, e.Calls)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Last }

type quizOutput struct {
	Questions []rawQuestion `json:"questions"`
}

// Generate produces exactly req.Count validated, deduplicated
// questions. A short batch triggers top-up calls within the MaxCalls
// budget; if the quota still cannot be met the whole quiz fails with a
// GenerationError rather than silently coming up short.
func (b *Builder) Generate(ctx context.Context, req Request) ([]Question, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", req.Count)
	}

	ctx = llm.WithPurpose(ctx, "quiz-gen")

	// Seed the dedup set with the caller's avoid list. avoid keeps
	// the prompt-ordered view sent to the model; seen answers "have
	// we used this prompt already".
	seen := make(map[string]bool, len(req.Avoid))
	avoid := make([]string, 0, len(req.Avoid))
	for _, p := range req.Avoid {
		norm := NormalizePrompt(p)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		avoid = append(avoid, p)
	}

	var (
		out     []Question
		lastErr error
		calls   int
	)

	for calls < b.config.MaxCalls && len(out) < req.Count {
		calls++

		batch, err := b.generateBatch(ctx, req, req.Count-len(out), avoid)
		if err != nil {
			lastErr = err
			continue
		}

		for _, raw := range batch {
			if err := validateQuestion(raw); err != nil {
				lastErr = err
				continue
			}
			norm := NormalizePrompt(raw.Prompt)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			avoid = append(avoid, raw.Prompt)

			out = append(out, Question{
				ID:          QuestionID(raw.Prompt),
				Kind:        Kind(raw.Type),
				Prompt:      raw.Prompt,
				Options:     raw.Options,
				Answer:      raw.Answer,
				Explanation: raw.Explanation,
			})
			if len(out) == req.Count {
				break
			}
		}
	}

	if len(out) < req.Count {
		return nil, &GenerationError{
			Requested: req.Count,
			Got:       len(out),
			Calls:     calls,
			Last:      lastErr,
		}
	}

	return out, nil
}

func (b *Builder) generateBatch(ctx context.Context, req Request, count int, avoid []string) ([]rawQuestion, error) {
	resp, err := b.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req, count, avoid, b.config.MaxAvoid)},
		},
		Schema:      QuizSchema,
		MaxTokens:   b.config.MaxTokens,
		Temperature: b.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw quizOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return raw.Questions, nil
}
