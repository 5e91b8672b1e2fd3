package quiz

import (
	"time"

	"github.com/abhisek/studycoach/internal/quizgen"
	"github.com/abhisek/studycoach/internal/session"
)

// quizReadyMsg is sent when the quiz has been planned and generated.
type quizReadyMsg struct {
	Questions  []quizgen.Question
	Difficulty quizgen.Difficulty
	Warning    string
	Err        error
}

// gradedMsg is sent when the current answer has been graded.
type gradedMsg struct {
	Outcome session.Outcome
	Err     error
}

// summaryMsg is sent when the session summary has been computed.
type summaryMsg struct {
	Summary *session.Summary
	Err     error
}

// spinnerTickMsg animates the loading spinner.
type spinnerTickMsg time.Time
