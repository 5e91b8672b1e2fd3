package quizgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a strict but helpful study coach. Generate concise, unambiguous questions.
Prefer mostly multiple-choice questions (with exactly 4 options labeled "A) ..." through "D) ...") plus at least one short-answer.
Every question must be answerable from the provided context when context is given.
The answer field must be correct and unambiguous. For multiple choice, exactly one option is correct and distractors reflect plausible mistakes, not random values.
Keep the explanation to one or two sentences.`

// buildUserMessage constructs the user message for one generation call.
func buildUserMessage(req Request, count int, avoid []string, maxAvoid int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)

	if req.Context != "" {
		b.WriteString("Context (from course notes):\n---\n")
		b.WriteString(req.Context)
		b.WriteString("\n---\n")
	}

	fmt.Fprintf(&b, "Create %d questions", count)
	if req.Context != "" {
		b.WriteString(" that can be answered from the context")
	}
	b.WriteString(".\n")

	if len(avoid) > 0 {
		if maxAvoid > 0 && len(avoid) > maxAvoid {
			avoid = avoid[:maxAvoid]
		}
		b.WriteString("\nDo NOT repeat any of the following previously asked prompts. ")
		b.WriteString("If a prompt is similar, create a clearly different question.\n")
		b.WriteString("Avoid these prompts:\n")
		for _, p := range avoid {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	switch req.Difficulty {
	case DifficultyEasy:
		b.WriteString("\nAdjust difficulty: The student is struggling. ")
		b.WriteString("Generate straightforward, foundational questions. Favor recall and recognition over synthesis. ")
		b.WriteString("Keep language simple, avoid multi-step reasoning, and avoid tricky distractors.")
	case DifficultyHard:
		b.WriteString("\nAdjust difficulty: The student is excelling. ")
		b.WriteString("Generate challenging, reasoning-based questions that require 2-3 steps of inference using the provided context. ")
		b.WriteString("Prefer questions that combine multiple facts, include subtle distractors that are still unambiguous, and require applying concepts, not just recalling them.")
	}

	return b.String()
}
