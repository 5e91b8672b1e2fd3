package quizgen

import "fmt"

// rawQuestion is one LLM-produced question before validation.
type rawQuestion struct {
	Type        string   `json:"type"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// validateQuestion rejects questions the session cannot safely present.
func validateQuestion(q rawQuestion) error {
	if NormalizePrompt(q.Prompt) == "" {
		return fmt.Errorf("empty prompt")
	}

	switch Kind(q.Type) {
	case KindMCQ:
		if len(q.Options) < 2 {
			return fmt.Errorf("mcq %q has %d options, need at least 2", q.Prompt, len(q.Options))
		}
		for i, opt := range q.Options {
			if NormalizePrompt(opt) == "" {
				return fmt.Errorf("mcq %q has empty option %d", q.Prompt, i)
			}
		}
	case KindShort:
		if len(q.Options) > 0 {
			return fmt.Errorf("short question %q must not carry options", q.Prompt)
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}

	if NormalizePrompt(q.Answer) == "" {
		return fmt.Errorf("question %q has empty answer", q.Prompt)
	}

	return nil
}
