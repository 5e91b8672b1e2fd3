// Package session drives one quiz from first question to summary and
// records the outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studycoach/internal/grading"
	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
)

// FeedbackMode controls when graded feedback is shown.
type FeedbackMode string

const (
	// FeedbackImmediate shows feedback after every answer.
	FeedbackImmediate FeedbackMode = "immediate"
	// FeedbackEnd defers all feedback to the summary.
	FeedbackEnd FeedbackMode = "end"
)

// ParseFeedbackMode validates a user-supplied feedback mode string.
func ParseFeedbackMode(s string) (FeedbackMode, bool) {
	switch FeedbackMode(s) {
	case FeedbackImmediate, FeedbackEnd:
		return FeedbackMode(s), true
	}
	return "", false
}

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNoQuestions    = errors.New("session has no questions")
	// ErrNotPresenting rejects a Submit outside the answering phase,
	// including a second Submit for the same question.
	ErrNotPresenting = errors.New("no question awaiting an answer")
	ErrNotFinished   = errors.New("session still has unanswered questions")
)

type state int

const (
	stateInit state = iota
	statePresenting
	stateFeedback
	stateSummarizing
	stateDone
)

// Config wires one Runner.
type Config struct {
	Topic        string
	Difficulty   quizgen.Difficulty
	AvoidMode    progress.AvoidMode
	FeedbackMode FeedbackMode
	Grader       grading.Grader
	Store        progress.Store

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

// Outcome is the graded result of one answered question.
type Outcome struct {
	Index    int
	Question quizgen.Question
	Answer   string
	Correct  bool
	Feedback string
	// GradingFailed marks answers scored incorrect because the
	// grader was unavailable, not because the student was wrong.
	GradingFailed bool
	// ShowFeedback is false in end-of-quiz feedback mode; the UI
	// holds the feedback until the summary.
	ShowFeedback bool
	ResponseMs   int64
}

// Summary is the end-of-quiz report.
type Summary struct {
	SessionID    string
	Topic        string
	Difficulty   quizgen.Difficulty
	FeedbackMode FeedbackMode
	Score        float64 // 0-100
	Correct      int
	Total        int
	Raw          string // "3/4"
	Band         string
	Results      []Outcome
	// StoreErr carries the first persistence failure, if any. The
	// quiz itself completed; the caller should warn, not abort.
	StoreErr error
}

// Runner walks a quiz through present -> submit -> feedback for each
// question, then a summary. Abandoning the Runner before Finish leaves
// no session row; attempts already answered stay recorded.
type Runner struct {
	cfg       Config
	questions []quizgen.Question

	id          string
	st          state
	index       int
	results     []Outcome
	startedAt   time.Time
	presentedAt time.Time
	storeErr    error
}

// New creates a Runner over an already generated quiz.
func New(cfg Config, questions []quizgen.Question) *Runner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		cfg:       cfg,
		questions: questions,
		id:        uuid.NewString(),
	}
}

// ID returns the session identifier used on recorded rows.
func (r *Runner) ID() string { return r.id }

// Total returns the number of questions in the quiz.
func (r *Runner) Total() int { return len(r.questions) }

// Index returns the zero-based position of the current question,
// clamped to the last question once the quiz is exhausted.
func (r *Runner) Index() int {
	if r.index >= len(r.questions) && len(r.questions) > 0 {
		return len(r.questions) - 1
	}
	return r.index
}

// Start presents the first question.
func (r *Runner) Start() (*quizgen.Question, error) {
	if r.st != stateInit {
		return nil, ErrAlreadyStarted
	}
	if len(r.questions) == 0 {
		return nil, ErrNoQuestions
	}

	r.st = statePresenting
	r.index = 0
	r.startedAt = r.cfg.Now()
	r.presentedAt = r.startedAt
	return &r.questions[0], nil
}

// Submit grades the answer to the current question. A grader failure
// does not abort the quiz: the answer is scored incorrect with a
// placeholder note and the session moves on.
func (r *Runner) Submit(ctx context.Context, answer string) (Outcome, error) {
	if r.st != statePresenting {
		return Outcome{}, ErrNotPresenting
	}

	q := r.questions[r.index]
	responseMs := r.cfg.Now().Sub(r.presentedAt).Milliseconds()

	out := Outcome{
		Index:        r.index,
		Question:     q,
		Answer:       answer,
		ShowFeedback: r.cfg.FeedbackMode == FeedbackImmediate,
		ResponseMs:   responseMs,
	}

	res, err := r.cfg.Grader.Grade(ctx, q, answer)
	if err != nil {
		out.Correct = false
		out.Feedback = "(grading unavailable)"
		out.GradingFailed = true
	} else {
		out.Correct = res.Correct
		out.Feedback = res.Feedback
	}

	r.recordAttempt(ctx, q, out)

	r.results = append(r.results, out)
	r.st = stateFeedback
	return out, nil
}

// Advance moves past the current feedback. It returns the next
// question, or (nil, false) when the quiz is ready to finish.
func (r *Runner) Advance() (*quizgen.Question, bool) {
	if r.st != stateFeedback {
		return nil, false
	}

	r.index++
	if r.index >= len(r.questions) {
		r.st = stateSummarizing
		return nil, false
	}

	r.st = statePresenting
	r.presentedAt = r.cfg.Now()
	return &r.questions[r.index], true
}

// Finish computes the summary and records the session row.
func (r *Runner) Finish(ctx context.Context) (*Summary, error) {
	if r.st != stateSummarizing {
		return nil, ErrNotFinished
	}
	r.st = stateDone

	correct := 0
	for _, out := range r.results {
		if out.Correct {
			correct++
		}
	}
	total := len(r.results)
	score := 100 * float64(correct) / float64(total)
	raw := fmt.Sprintf("%d/%d", correct, total)
	finishedAt := r.cfg.Now()

	if r.cfg.Store != nil {
		err := r.cfg.Store.RecordSession(ctx, &progress.Session{
			ID:         r.id,
			Topic:      r.cfg.Topic,
			Difficulty: string(r.cfg.Difficulty),
			Score:      score,
			Total:      total,
			Correct:    correct,
			Details: progress.SessionDetails{
				Raw:          raw,
				AvoidMode:    string(r.cfg.AvoidMode),
				Difficulty:   string(r.cfg.Difficulty),
				FeedbackMode: string(r.cfg.FeedbackMode),
			},
			StartedAt:  r.startedAt,
			FinishedAt: finishedAt,
		})
		r.noteStoreErr("record session", err)
	}

	return &Summary{
		SessionID:    r.id,
		Topic:        r.cfg.Topic,
		Difficulty:   r.cfg.Difficulty,
		FeedbackMode: r.cfg.FeedbackMode,
		Score:        score,
		Correct:      correct,
		Total:        total,
		Raw:          raw,
		Band:         Band(score),
		Results:      r.results,
		StoreErr:     r.storeErr,
	}, nil
}

// Band maps a 0-100 score to the qualitative label shown on the
// summary screen.
func Band(score float64) string {
	switch {
	case score < 50:
		return "Needs revision: focus on foundational concepts and definitions."
	case score < 80:
		return "Fair progress: keep practicing and revisit tricky areas."
	default:
		return "Good progress: you're ready for more challenging, reasoning-based questions."
	}
}

func (r *Runner) recordAttempt(ctx context.Context, q quizgen.Question, out Outcome) {
	if r.cfg.Store == nil {
		return
	}
	err := r.cfg.Store.RecordAttempt(ctx, &progress.Attempt{
		SessionID:  r.id,
		Topic:      r.cfg.Topic,
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Kind:       string(q.Kind),
		Difficulty: string(r.cfg.Difficulty),
		Answer:     out.Answer,
		Correct:    out.Correct,
		ResponseMs: out.ResponseMs,
		CreatedAt:  r.cfg.Now(),
	})
	r.noteStoreErr("record attempt", err)
}

func (r *Runner) noteStoreErr(op string, err error) {
	if err != nil && r.storeErr == nil {
		r.storeErr = fmt.Errorf("%s: %w", op, err)
	}
}
