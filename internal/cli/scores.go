package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"trivia-legends/internal/app"
	"trivia-legends/internal/config"
	"trivia-legends/internal/domain"
	"trivia-legends/internal/logging"

	"github.com/spf13/cobra"
)

// NewScoresCmd groups the score history commands.
func NewScoresCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Inspect recorded game results",
	}

	withScores := func(run func(cmd *cobra.Command, scores *app.ScoreService) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.NewWithWriter(os.Stderr, "error", "text")
			store, closeStore, err := openScoreStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			return run(cmd, app.NewScoreService(store, logger))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every game, newest first, with best, worst and average",
		RunE: withScores(func(cmd *cobra.Command, scores *app.ScoreService) error {
			stats, err := scores.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "best",
		Short: "Show the highest score",
		RunE: withScores(func(cmd *cobra.Command, scores *app.ScoreService) error {
			best, err := scores.Best(cmd.Context())
			if errors.Is(err, domain.ErrScoreNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No games played yet.")
				return nil
			}
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), []domain.ScoreSummary{best})
			return nil
		}),
	})

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the score history to an Excel workbook",
		RunE: withScores(func(cmd *cobra.Command, scores *app.ScoreService) error {
			data, err := scores.ExportXLSX(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		}),
	}
	export.Flags().StringVar(&out, "out", "scores.xlsx", "output file")
	cmd.AddCommand(export)
	return cmd
}

func printStats(out io.Writer, stats domain.ScoreStats) {
	if len(stats.History) == 0 {
		fmt.Fprintln(out, "No games played yet.")
		return
	}
	printSummaries(out, stats.History)
	fmt.Fprintln(out)
	if stats.Best != nil {
		fmt.Fprintf(out, "Best:    %d (%s)\n", stats.Best.Score, stats.Best.Difficulty.Label())
	}
	if stats.Worst != nil {
		fmt.Fprintf(out, "Worst:   %d (%s)\n", stats.Worst.Score, stats.Worst.Difficulty.Label())
	}
	fmt.Fprintf(out, "Average: %.1f\n", stats.Average)
}

func printSummaries(out io.Writer, summaries []domain.ScoreSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSCORE\tDIFFICULTY\tCORRECT\tRATE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d/%d\t%.0f%%\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Score, s.Difficulty.Label(), s.CorrectAnswers, s.TotalQuestions, s.SuccessRate())
	}
	_ = w.Flush()
}
