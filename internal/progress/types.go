// Package progress persists quiz attempts and session summaries and
// serves the aggregates that drive adaptive quiz planning.
package progress

import (
	"context"
	"time"
)

// AvoidMode controls which previously seen questions are excluded from
// new quizzes.
type AvoidMode string

const (
	// AvoidAll excludes every question asked before on the topic.
	AvoidAll AvoidMode = "all"
	// AvoidCorrect excludes only questions whose most recent attempt
	// was answered correctly, so missed material comes back around.
	AvoidCorrect AvoidMode = "correct"
)

// ParseAvoidMode validates a user-supplied avoid mode string.
func ParseAvoidMode(s string) (AvoidMode, bool) {
	switch AvoidMode(s) {
	case AvoidAll, AvoidCorrect:
		return AvoidMode(s), true
	}
	return "", false
}

// Attempt is one graded answer to one question.
type Attempt struct {
	SessionID  string
	Topic      string
	QuestionID string
	Prompt     string
	Kind       string
	Difficulty string
	Answer     string
	Correct    bool
	ResponseMs int64
	CreatedAt  time.Time
}

// SessionDetails is the free-form metadata stored alongside a session
// row, serialized as JSON.
type SessionDetails struct {
	Raw          string `json:"raw"`
	AvoidMode    string `json:"avoid_mode"`
	Difficulty   string `json:"difficulty"`
	FeedbackMode string `json:"feedback_mode"`
}

// Session is the summary row written once when a quiz completes.
type Session struct {
	ID         string
	Topic      string
	Difficulty string
	Score      float64
	Total      int
	Correct    int
	Details    SessionDetails
	StartedAt  time.Time
	FinishedAt time.Time
}

// QuestionAggregate is the per-question rollup used for the
// frequently-missed report.
type QuestionAggregate struct {
	QuestionID    string
	Prompt        string
	TimesAsked    int
	TimesCorrect  int
	AvgResponseMs float64
	LastCorrect   bool
}

// ErrorRate is the fraction of attempts answered incorrectly.
func (q QuestionAggregate) ErrorRate() float64 {
	if q.TimesAsked == 0 {
		return 0
	}
	return 1 - float64(q.TimesCorrect)/float64(q.TimesAsked)
}

// TopicStats is the per-topic rollup shown by the stats command.
type TopicStats struct {
	Topic         string
	Sessions      int
	Attempts      int
	Correct       int
	AvgResponseMs float64
	LastSessionAt time.Time
}

// Accuracy is the all-time fraction of correct attempts.
func (s TopicStats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// Store is the persistence boundary for quiz history.
type Store interface {
	// RecordAttempt appends one graded answer and updates the
	// per-question aggregate in the same transaction.
	RecordAttempt(ctx context.Context, a *Attempt) error

	// RecordSession appends the session summary row.
	RecordSession(ctx context.Context, s *Session) error

	// HistoryForTopic returns prompts of previously asked questions
	// on the topic, filtered by the avoid mode, most recent first.
	HistoryForTopic(ctx context.Context, topic string, mode AvoidMode) ([]string, error)

	// AccuracyForTopic returns the all-time accuracy for the topic.
	// The second return is false when the topic has no attempts.
	AccuracyForTopic(ctx context.Context, topic string) (float64, bool, error)

	// FrequentlyMissed returns up to topK questions on the topic
	// ordered by error rate, then by how often they were asked.
	// Questions never missed are excluded.
	FrequentlyMissed(ctx context.Context, topic string, topK int) ([]QuestionAggregate, error)

	// StatsByTopic returns the per-topic rollups, most recently
	// active topic first.
	StatsByTopic(ctx context.Context) ([]TopicStats, error)

	Close() error
}
