package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/config"
	"trivia-legends/internal/domain"
	"trivia-legends/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const maxAttempts = 3

type playFlags struct {
	difficulty string
	amount     int
	category   int
	seconds    int
}

// NewPlayCmd runs a game in the terminal and stores the result locally.
func NewPlayCmd(configPath *string) *cobra.Command {
	flags := playFlags{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a trivia game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// keep the terminal clean unless debugging
			level := "error"
			if cfg.Log.Level == "debug" {
				level = "debug"
			}
			logger := logging.NewWithWriter(os.Stderr, level, "text")

			store, closeStore, err := openScoreStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := gameDefaults(cfg)
			if cmd.Flags().Changed("difficulty") {
				opts.Difficulty = domain.Difficulty(flags.difficulty)
			}
			if cmd.Flags().Changed("amount") {
				opts.Amount = flags.amount
			}
			if cmd.Flags().Changed("category") {
				opts.Category = flags.category
			}
			if cmd.Flags().Changed("time") {
				opts.TimePerQuestion = time.Duration(flags.seconds) * time.Second
			}

			game := app.NewGame(uuid.NewString(), newQuestionBank(cfg, logger), app.NewScoreService(store, logger), logger)
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), game, opts)
		},
	}
	cmd.Flags().StringVar(&flags.difficulty, "difficulty", "", difficultyUsage())
	cmd.Flags().IntVar(&flags.amount, "amount", domain.DefaultAmount, "number of questions (1-50)")
	cmd.Flags().IntVar(&flags.category, "category", 0, "question bank category id (9-32)")
	cmd.Flags().IntVar(&flags.seconds, "time", 0, "seconds per question (10-60, 0 disables the timer)")
	return cmd
}

func difficultyUsage() string {
	names := make([]string, 0, len(domain.Difficulties))
	for _, d := range domain.Difficulties {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ") + " or " + string(domain.DifficultyAny)
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, game *app.Game, opts domain.GameOptions) error {
	lines := newLineReader(in)
	fmt.Fprintln(out, "Loading questions...")
	status := game.Start(ctx, opts)

	for {
		if status.Kind == domain.StatusError {
			fmt.Fprintf(out, "Error: %s\n", status.Message)
			again, err := promptYesNo(ctx, lines, out, "Try again? (y/n): ")
			if err != nil || !again {
				return nil
			}
		} else {
			if err := playRound(ctx, lines, out, game); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			snap := game.Snapshot()
			fmt.Fprintf(out, "\nFinal score: %d (%d/%d correct)\n", snap.Score, snap.CorrectAnswers, snap.Total)
			again, err := promptYesNo(ctx, lines, out, "Play again? (y/n): ")
			if err != nil || !again {
				return nil
			}
		}
		fmt.Fprintln(out, "Loading questions...")
		status = game.Restart(ctx)
	}
}

func playRound(ctx context.Context, lines *lineReader, out io.Writer, game *app.Game) error {
	for {
		snap := game.Snapshot()
		if snap.Status.Kind != domain.StatusPlaying || snap.Question == nil {
			return nil
		}
		question, _ := game.CurrentQuestion()
		printQuestion(out, snap)

		choice, outcome := getAnswer(ctx, lines, out, len(snap.Question.Answers), snap.Deadline)
		fmt.Fprintln(out)
		switch outcome {
		case answerGiven:
			result := game.Answer(snap.Question.Answers[choice])
			if result.Correct {
				fmt.Fprintf(out, "Correct! +%d\n", result.Awarded)
			} else {
				fmt.Fprintf(out, "Wrong. Correct answer was %s\n", result.CorrectAnswer)
			}
			game.Advance()
		case answerTimedOut:
			fmt.Fprintf(out, "Time's up! Correct answer was %s\n", question.CorrectAnswer)
			game.Timeout(snap.Index)
		case answerSkipped:
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n", question.CorrectAnswer)
			game.Advance()
		case answerClosed:
			if err := ctx.Err(); err != nil {
				return err
			}
			return io.EOF
		}
	}
}

func printQuestion(out io.Writer, snap app.Snapshot) {
	q := snap.Question
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d [%s] %s | score %d\n", snap.Index+1, snap.Total, q.Difficulty.Label(), q.Category, snap.Score)
	fmt.Fprintf(out, "%s\n\n", q.Text)
	for i, answer := range q.Answers {
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, answer)
	}
	if snap.Deadline != nil {
		left := time.Until(*snap.Deadline).Round(time.Second)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(out, "(%ds to answer)\n", int(left.Seconds()))
	}
	fmt.Fprintln(out)
}

type answerOutcome int

const (
	answerGiven answerOutcome = iota
	answerSkipped
	answerTimedOut
	answerClosed
)

func getAnswer(ctx context.Context, lines *lineReader, out io.Writer, optionCount int, deadline *time.Time) (int, answerOutcome) {
	if optionCount < 1 {
		return -1, answerSkipped
	}
	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		line, outcome := lines.next(ctx, deadline)
		if outcome != answerGiven {
			return -1, outcome
		}

		line = strings.ToUpper(strings.TrimSpace(line))
		if len(line) == 1 {
			letter := line[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), answerGiven
			}
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}
	return -1, answerSkipped
}

func promptYesNo(ctx context.Context, lines *lineReader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, outcome := lines.next(ctx, nil)
		if outcome != answerGiven {
			return false, io.EOF
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

// lineReader reads input on its own goroutine so prompts can time out.
type lineReader struct {
	lines chan string
}

func newLineReader(in io.Reader) *lineReader {
	r := &lineReader{lines: make(chan string)}
	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			r.lines <- scanner.Text()
		}
	}()
	return r
}

func (r *lineReader) next(ctx context.Context, deadline *time.Time) (string, answerOutcome) {
	var expired <-chan time.Time
	if deadline != nil {
		wait := time.Until(*deadline)
		if wait <= 0 {
			return "", answerTimedOut
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-r.lines:
		if !ok {
			return "", answerClosed
		}
		return line, answerGiven
	case <-expired:
		return "", answerTimedOut
	case <-ctx.Done():
		return "", answerClosed
	}
}
