package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studycoach/internal/adaptive"
	"github.com/abhisek/studycoach/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress per topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := progress.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()

		if topic, _ := cmd.Flags().GetString("topic"); topic != "" {
			missed, _ := cmd.Flags().GetInt("missed")
			return printTopicStats(ctx, s, topic, missed)
		}

		stats, err := s.StatsByTopic(ctx)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No quiz history yet.")
			return nil
		}

		fmt.Printf("%-24s  %8s  %8s  %9s  %8s  %s\n",
			"Topic", "Sessions", "Attempts", "Accuracy", "Avg Ms", "Last Active")
		fmt.Println(strings.Repeat("─", 84))
		for _, ts := range stats {
			fmt.Printf("%-24s  %8d  %8d  %8.0f%%  %8.0f  %s\n",
				clip(ts.Topic, 24), ts.Sessions, ts.Attempts,
				100*ts.Accuracy(), ts.AvgResponseMs,
				ts.LastSessionAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func printTopicStats(ctx context.Context, s progress.Store, topic string, missed int) error {
	acc, ok, err := s.AccuracyForTopic(ctx, topic)
	if err != nil {
		return fmt.Errorf("query accuracy: %w", err)
	}
	if !ok {
		fmt.Printf("No history for topic %q yet.\n", topic)
		return nil
	}

	fmt.Printf("Topic:           %s\n", topic)
	fmt.Printf("Accuracy:        %.0f%%\n", 100*acc)
	fmt.Printf("Next difficulty: %s\n", adaptive.DifficultyForAccuracy(acc))

	aggs, err := s.FrequentlyMissed(ctx, topic, missed)
	if err != nil {
		return fmt.Errorf("query frequently missed: %w", err)
	}
	if len(aggs) == 0 {
		fmt.Println("\nNo missed questions. Nice.")
		return nil
	}

	fmt.Println("\nFrequently missed:")
	fmt.Println(strings.Repeat("─", 84))
	for _, a := range aggs {
		fmt.Printf("%3.0f%% wrong  (%d/%d)  %s\n",
			100*a.ErrorRate(), a.TimesAsked-a.TimesCorrect, a.TimesAsked,
			clip(a.Prompt, 60))
	}
	return nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	statsCmd.Flags().StringP("topic", "t", "", "Show detail for one topic")
	statsCmd.Flags().Int("missed", 5, "How many frequently missed questions to list")
}
