package quizgen

import "github.com/abhisek/studycoach/internal/llm"

// QuizSchema defines the JSON schema for LLM quiz generation responses.
var QuizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A batch of quiz questions for a study topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type":        "string",
							"enum":        []any{"mcq", "short"},
							"description": "How the student answers: pick an option or type a short answer",
						},
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question shown to the student, self-contained and unambiguous",
						},
						"options": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "string",
							},
							"description": "Exactly 4 options labeled 'A) ...' through 'D) ...' for mcq. Empty array for short.",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct answer. For mcq: the letter or the full option text. For short: the expected answer.",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "One or two sentences explaining why the answer is correct",
						},
					},
					"required":             []any{"type", "prompt", "options", "answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
