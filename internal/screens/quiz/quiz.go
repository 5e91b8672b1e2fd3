// Package quiz is the interactive quiz screen: generate, ask, grade,
// summarize.
package quiz

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studycoach/internal/adaptive"
	"github.com/abhisek/studycoach/internal/grading"
	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
	"github.com/abhisek/studycoach/internal/retrieval"
	"github.com/abhisek/studycoach/internal/session"
	"github.com/abhisek/studycoach/internal/ui/components"
)

type phase int

const (
	phaseGenerating phase = iota
	phaseQuestion
	phaseGrading
	phaseFeedback
	phaseSummary
	phaseError
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Deps carries the wired engine the screen drives.
type Deps struct {
	Selector  *adaptive.Selector
	Builder   *quizgen.Builder
	Grader    grading.Grader
	Store     progress.Store
	Retriever retrieval.Retriever // nil when no notes directory is set
}

// Options is the per-quiz configuration from the command line.
type Options struct {
	Topic        string
	Count        int
	AvoidMode    progress.AvoidMode
	FeedbackMode session.FeedbackMode
	// Difficulty pins the band, skipping the adaptive selection.
	Difficulty quizgen.Difficulty
}

// Model is the quiz screen.
type Model struct {
	deps Deps
	opts Options

	phase      phase
	spinner    int
	difficulty quizgen.Difficulty
	warning    string
	err        error

	runner   *session.Runner
	question *quizgen.Question
	outcome  session.Outcome
	summary  *session.Summary

	input   components.TextInput
	choices components.MultiChoice
	bar     components.ProgressBar
}

// New creates the quiz screen model.
func New(deps Deps, opts Options) Model {
	return Model{
		deps:  deps,
		opts:  opts,
		phase: phaseGenerating,
		bar:   components.NewProgressBar(24),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.generateCmd(), spinnerTick())
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// generateCmd plans difficulty from history, retrieves notes context,
// and generates the quiz.
func (m Model) generateCmd() tea.Cmd {
	deps, opts := m.deps, m.opts
	return func() tea.Msg {
		ctx := context.Background()

		var warning string
		difficulty := opts.Difficulty
		var avoid []string

		plan, err := deps.Selector.Plan(ctx, opts.Topic, opts.AvoidMode)
		if err != nil {
			warning = fmt.Sprintf("history unavailable: %v", err)
		}
		avoid = plan.Avoid
		if difficulty == "" {
			difficulty = plan.Difficulty
		}

		var notes string
		if deps.Retriever != nil {
			notes, err = deps.Retriever.Retrieve(ctx, opts.Topic, 6)
			if err != nil && warning == "" {
				warning = fmt.Sprintf("notes unavailable: %v", err)
			}
		}

		questions, err := deps.Builder.Generate(ctx, quizgen.Request{
			Topic:      opts.Topic,
			Context:    notes,
			Count:      opts.Count,
			Avoid:      avoid,
			Difficulty: difficulty,
		})
		if err != nil {
			return quizReadyMsg{Err: err}
		}

		return quizReadyMsg{
			Questions:  questions,
			Difficulty: difficulty,
			Warning:    warning,
		}
	}
}

func (m Model) gradeCmd(answer string) tea.Cmd {
	runner := m.runner
	return func() tea.Msg {
		out, err := runner.Submit(context.Background(), answer)
		return gradedMsg{Outcome: out, Err: err}
	}
}

func (m Model) finishCmd() tea.Cmd {
	runner := m.runner
	return func() tea.Msg {
		sum, err := runner.Finish(context.Background())
		return summaryMsg{Summary: sum, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTickMsg:
		if m.phase == phaseGenerating || m.phase == phaseGrading {
			m.spinner = (m.spinner + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		return m, nil

	case quizReadyMsg:
		return m.onQuizReady(msg)

	case gradedMsg:
		return m.onGraded(msg)

	case summaryMsg:
		if msg.Err != nil {
			m.phase = phaseError
			m.err = msg.Err
			return m, nil
		}
		m.summary = msg.Summary
		m.phase = phaseSummary
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) onQuizReady(msg quizReadyMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseError
		m.err = msg.Err
		return m, nil
	}

	m.difficulty = msg.Difficulty
	m.warning = msg.Warning
	m.runner = session.New(session.Config{
		Topic:        m.opts.Topic,
		Difficulty:   msg.Difficulty,
		AvoidMode:    m.opts.AvoidMode,
		FeedbackMode: m.opts.FeedbackMode,
		Grader:       m.deps.Grader,
		Store:        m.deps.Store,
	}, msg.Questions)

	q, err := m.runner.Start()
	if err != nil {
		m.phase = phaseError
		m.err = err
		return m, nil
	}
	return m.presentQuestion(q)
}

func (m Model) presentQuestion(q *quizgen.Question) (Model, tea.Cmd) {
	m.question = q
	m.phase = phaseQuestion

	if q.Kind == quizgen.KindMCQ {
		m.choices = components.NewMultiChoice(q.Options)
		return m, nil
	}
	m.input = components.NewTextInput("type your answer")
	return m, m.input.Init()
}

func (m Model) onGraded(msg gradedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseError
		m.err = msg.Err
		return m, nil
	}

	m.outcome = msg.Outcome
	if m.question.Kind == quizgen.KindMCQ {
		m.choices.Submit(msg.Outcome.Correct)
	} else {
		m.input.Submit(msg.Outcome.Correct)
	}

	if msg.Outcome.ShowFeedback {
		m.phase = phaseFeedback
		return m, nil
	}
	return m.advance()
}

func (m Model) advance() (Model, tea.Cmd) {
	if q, more := m.runner.Advance(); more {
		return m.presentQuestion(q)
	}
	m.phase = phaseGrading
	return m, tea.Batch(m.finishCmd(), spinnerTick())
}

func (m Model) onKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.phase {
	case phaseQuestion:
		if msg.String() == "enter" {
			answer := m.answerValue()
			if answer == "" {
				return m, nil
			}
			m.phase = phaseGrading
			return m, tea.Batch(m.gradeCmd(answer), spinnerTick())
		}
		return m.updateInputs(msg)

	case phaseFeedback:
		if msg.String() == "enter" {
			return m.advance()
		}

	case phaseSummary, phaseError:
		switch msg.String() {
		case "enter", "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) answerValue() string {
	if m.question.Kind == quizgen.KindMCQ {
		return m.choices.Value()
	}
	return m.input.Value()
}

func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	if m.phase != phaseQuestion || m.question == nil {
		return m, nil
	}

	var cmd tea.Cmd
	if m.question.Kind == quizgen.KindMCQ {
		m.choices, cmd = m.choices.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// Title returns the header title.
func (m Model) Title() string { return m.opts.Topic }

// Done reports whether the screen reached a terminal phase.
func (m Model) Done() bool {
	return m.phase == phaseSummary || m.phase == phaseError
}

// Err returns the fatal error, if the screen ended in one.
func (m Model) Err() error {
	return m.err
}

// Position returns the header position string, e.g. "Q 2/4".
func (m Model) Position() string {
	if m.runner == nil || m.question == nil || m.phase == phaseSummary {
		return ""
	}
	return fmt.Sprintf("Q %d/%d", m.runner.Index()+1, m.runner.Total())
}
