package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studycoach/internal/quizgen"
	"github.com/abhisek/studycoach/internal/ui/layout"
	"github.com/abhisek/studycoach/internal/ui/theme"
)

// View renders the screen content for the given area.
func (m Model) View(width, height int) string {
	var body string

	switch m.phase {
	case phaseGenerating:
		body = m.viewSpinner(fmt.Sprintf("Generating quiz on %q ...", m.opts.Topic))
	case phaseQuestion:
		body = m.viewQuestion()
	case phaseGrading:
		body = m.viewSpinner("Grading ...")
	case phaseFeedback:
		body = m.viewFeedback()
	case phaseSummary:
		body = m.viewSummary(width)
	case phaseError:
		body = m.viewError()
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(body)
}

// FooterHints returns the key hints for the current phase.
func (m Model) FooterHints() []layout.KeyHint {
	switch m.phase {
	case phaseQuestion:
		if m.question != nil && m.question.Kind == quizgen.KindMCQ {
			return []layout.KeyHint{
				{Key: "↑↓", Description: "Choose"},
				{Key: "Enter", Description: "Submit"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		}
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	case phaseFeedback:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	case phaseSummary, phaseError:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Exit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (m Model) viewSpinner(label string) string {
	return theme.Hint.Render(spinnerFrames[m.spinner] + " " + label)
}

func (m Model) viewQuestion() string {
	var b strings.Builder

	b.WriteString(theme.Body.Bold(true).Render(m.question.Prompt))
	b.WriteString("\n\n")

	if m.question.Kind == quizgen.KindMCQ {
		b.WriteString(m.choices.View())
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.warning != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("⚠ " + m.warning))
	}

	return b.String()
}

func (m Model) viewFeedback() string {
	var b strings.Builder

	b.WriteString(theme.Body.Bold(true).Render(m.question.Prompt))
	b.WriteString("\n\n")

	if m.question.Kind == quizgen.KindMCQ {
		b.WriteString(m.choices.View())
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.outcome.Correct {
		b.WriteString(theme.Correct.Render("Correct!"))
	} else if m.outcome.GradingFailed {
		b.WriteString(theme.Incorrect.Render("Not graded"))
	} else {
		b.WriteString(theme.Incorrect.Render("Incorrect"))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Card.Render(m.outcome.Feedback))

	return b.String()
}

func (m Model) viewSummary(width int) string {
	sum := m.summary

	var b strings.Builder
	b.WriteString(theme.Title.Render("Quiz complete"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("Topic: %s   Difficulty: %s", sum.Topic, sum.Difficulty)))
	b.WriteString("\n")
	b.WriteString(theme.Body.Bold(true).Render(fmt.Sprintf("Score: %.0f%% (%s)", sum.Score, sum.Raw)))
	b.WriteString("   ")
	b.WriteString(m.bar.View(sum.Correct, sum.Total))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(sum.Band))
	b.WriteString("\n\n")

	for _, out := range sum.Results {
		mark := theme.Correct.Render("✓")
		if !out.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, out.Index+1, truncate(out.Question.Prompt, width-10)))

		// In end-of-quiz mode this is the first time feedback shows.
		if sum.FeedbackMode == "end" || !out.Correct {
			b.WriteString(theme.Hint.Render("   " + truncate(out.Feedback, width-10)))
			b.WriteString("\n")
		}
	}

	if sum.StoreErr != nil {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("⚠ progress not fully saved: %v", sum.StoreErr)))
		b.WriteString("\n")
	}
	if m.warning != "" {
		b.WriteString(theme.Hint.Render("⚠ " + m.warning))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewError() string {
	return theme.Incorrect.Render("Quiz failed") + "\n\n" +
		theme.Body.Render(fmt.Sprint(m.err)) + "\n\n" +
		theme.Hint.Render("Nothing was recorded for this session.")
}

func truncate(s string, max int) string {
	if max < 10 {
		max = 10
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
