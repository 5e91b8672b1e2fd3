package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/studycoach/internal/adaptive"
	"github.com/abhisek/studycoach/internal/app"
	"github.com/abhisek/studycoach/internal/grading"
	"github.com/abhisek/studycoach/internal/llm"
	"github.com/abhisek/studycoach/internal/progress"
	"github.com/abhisek/studycoach/internal/quizgen"
	"github.com/abhisek/studycoach/internal/retrieval"
	"github.com/abhisek/studycoach/internal/screens/quiz"
	"github.com/abhisek/studycoach/internal/session"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Run a quiz on a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuiz(cmd)
	},
}

func addQuizFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("topic", "t", "", "Topic to be quizzed on (required)")
	cmd.Flags().IntP("count", "n", 4, "Number of questions")
	cmd.Flags().String("avoid", "all", "Which past questions to avoid repeating: all | correct")
	cmd.Flags().String("feedback", "immediate", "When to show feedback: immediate | end")
	cmd.Flags().String("difficulty", "", "Pin difficulty instead of adapting: easy | medium | hard")
	cmd.Flags().String("notes", "", "Directory of .txt/.md notes to ground questions in")
}

func init() {
	addQuizFlags(quizCmd)
}

func runQuiz(cmd *cobra.Command) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		return fmt.Errorf("--topic is required")
	}

	count, _ := cmd.Flags().GetInt("count")
	if count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", count)
	}

	avoidFlag, _ := cmd.Flags().GetString("avoid")
	avoidMode, ok := progress.ParseAvoidMode(avoidFlag)
	if !ok {
		return fmt.Errorf("invalid --avoid %q: use all or correct", avoidFlag)
	}

	feedbackFlag, _ := cmd.Flags().GetString("feedback")
	feedbackMode, ok := session.ParseFeedbackMode(feedbackFlag)
	if !ok {
		return fmt.Errorf("invalid --feedback %q: use immediate or end", feedbackFlag)
	}

	var difficulty quizgen.Difficulty
	if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
		difficulty, ok = quizgen.ParseDifficulty(d)
		if !ok {
			return fmt.Errorf("invalid --difficulty %q: use easy, medium or hard", d)
		}
	}

	// A broken database degrades to a volatile in-memory store: the
	// quiz still runs, progress just won't survive the process.
	store, requestLog := openStore(cmd)
	defer store.Close()

	provider, err := llm.NewProviderFromEnv(context.Background(), requestLog)
	if err != nil {
		return fmt.Errorf("configure LLM provider: %w", err)
	}

	var retriever retrieval.Retriever
	if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
		if _, err := os.Stat(notes); err != nil {
			return fmt.Errorf("notes directory: %w", err)
		}
		retriever = retrieval.NewDirRetriever(notes)
	}

	deps := quiz.Deps{
		Selector:  adaptive.NewSelector(store),
		Builder:   quizgen.New(provider, quizgen.DefaultConfig()),
		Grader:    grading.New(provider, grading.DefaultConfig()),
		Store:     store,
		Retriever: retriever,
	}
	opts := quiz.Options{
		Topic:        topic,
		Count:        count,
		AvoidMode:    avoidMode,
		FeedbackMode: feedbackMode,
		Difficulty:   difficulty,
	}

	return app.Run(deps, opts)
}

// openStore opens the SQLite store, degrading to memory on failure.
func openStore(cmd *cobra.Command) (progress.Store, llm.RequestLog) {
	dbPath, err := resolveDBPath(cmd)
	if err == nil {
		var s *progress.SQLiteStore
		if s, err = progress.Open(dbPath); err == nil {
			return s, s
		}
	}

	fmt.Fprintf(os.Stderr, "warning: progress database unavailable (%v); history will not be saved\n", err)
	mem := progress.NewMemoryStore()
	return mem, mem
}
