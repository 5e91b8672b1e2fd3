// Package quizgen turns a topic plus optional course notes into a
// validated set of quiz questions via the LLM provider.
package quizgen

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Kind distinguishes how a question is answered.
type Kind string

const (
	// KindMCQ is multiple choice with lettered options.
	KindMCQ Kind = "mcq"
	// KindShort is free-text short answer.
	KindShort Kind = "short"
)

// Difficulty is the requested question difficulty band.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a user-supplied difficulty string.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

// Question is one validated quiz question.
type Question struct {
	// ID is derived from the normalized prompt, so the same question
	// keeps the same identity across sessions.
	ID          string
	Kind        Kind
	Prompt      string
	Options     []string // lettered "A) ..." strings; empty for short answer
	Answer      string
	Explanation string
}

// NormalizePrompt lowercases and collapses whitespace so trivially
// reworded duplicates compare equal.
func NormalizePrompt(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// QuestionID returns the stable identifier for a prompt: the first 16
// hex characters of the SHA-256 of its normalized form.
func QuestionID(prompt string) string {
	sum := sha256.Sum256([]byte(NormalizePrompt(prompt)))
	return hex.EncodeToString(sum[:])[:16]
}

// Request describes one quiz to generate.
type Request struct {
	Topic      string
	Context    string // retrieved course notes; may be empty
	Count      int
	Avoid      []string // prompts that must not be repeated
	Difficulty Difficulty
}
