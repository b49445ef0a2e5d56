package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/domain"
	"trivia-legends/internal/infra/memory"
)

func TestPlayAllCorrectThenQuit(t *testing.T) {
	scores := app.NewScoreService(memory.NewScoreStore(), nil)
	game := app.NewGame("cli", &stubSource{questions: sampleBatch()}, scores, nil)
	in := autoPlay(game, correctLetter, "n")

	var out bytes.Buffer
	if err := runPlay(context.Background(), in, &out, game, domain.GameOptions{Amount: 3}); err != nil {
		t.Fatalf("play: %v", err)
	}

	text := out.String()
	if strings.Count(text, "Correct! +") != 3 {
		t.Fatalf("expected three correct answers, got:\n%s", text)
	}
	if !strings.Contains(text, "Final score: 60 (3/3 correct)") {
		t.Fatalf("missing final score line:\n%s", text)
	}
	best, err := scores.Best(context.Background())
	if err != nil || best.Score != 60 {
		t.Fatalf("expected stored best of 60, got %+v (%v)", best, err)
	}
}

func TestPlayRestartKeepsPlaying(t *testing.T) {
	scores := app.NewScoreService(memory.NewScoreStore(), nil)
	game := app.NewGame("cli", &stubSource{questions: sampleBatch()}, scores, nil)
	in := autoPlay(game, correctLetter, "y", "n")

	var out bytes.Buffer
	if err := runPlay(context.Background(), in, &out, game, domain.GameOptions{Amount: 3}); err != nil {
		t.Fatalf("play: %v", err)
	}
	history, _ := scores.History(context.Background())
	if len(history) != 2 {
		t.Fatalf("expected two recorded games, got %d", len(history))
	}
}

func TestPlayInvalidInputSkipsQuestion(t *testing.T) {
	game := app.NewGame("cli", &stubSource{questions: sampleBatch()[:1]}, nil, nil)
	in := autoPlay(game, func(app.Snapshot, domain.Question) string { return "Z\n7\nzz" }, "n")

	var out bytes.Buffer
	if err := runPlay(context.Background(), in, &out, game, domain.GameOptions{Amount: 1}); err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	if strings.Count(text, "Invalid input") != 2 || !strings.Contains(text, "Skipping. Correct answer was Paris") {
		t.Fatalf("unexpected output:\n%s", text)
	}
	if !strings.Contains(text, "Final score: 0 (0/1 correct)") {
		t.Fatalf("missing final score line:\n%s", text)
	}
}

func TestPlayTimesOutQuestions(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-time.Minute) }
	game := app.NewGameWithClock("cli", &stubSource{questions: sampleBatch()[:2]}, nil, nil, past)

	var out bytes.Buffer
	err := runPlay(context.Background(), strings.NewReader("n\n"), &out, game, domain.GameOptions{Amount: 2, TimePerQuestion: 10 * time.Second})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	if strings.Count(text, "Time's up!") != 2 || !strings.Contains(text, "Final score: 0 (0/2 correct)") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}

func TestPlayReportsFetchError(t *testing.T) {
	game := app.NewGame("cli", &stubSource{}, nil, nil)

	var out bytes.Buffer
	if err := runPlay(context.Background(), strings.NewReader("n\n"), &out, game, domain.GameOptions{Amount: 5}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "Error: no questions found") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestPlayStopsOnClosedInput(t *testing.T) {
	game := app.NewGame("cli", &stubSource{questions: sampleBatch()}, nil, nil)

	var out bytes.Buffer
	if err := runPlay(context.Background(), strings.NewReader(""), &out, game, domain.GameOptions{Amount: 3}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if strings.Contains(out.String(), "Final score") {
		t.Fatalf("closed input must end the session without a final score:\n%s", out.String())
	}
}

// autoPlay answers every presented question with pick and each end-of-game
// prompt with the next entry of finals.
func TestPlayDifficultyFlagListsFilters(t *testing.T) {
	path := ""
	flag := NewPlayCmd(&path).Flags().Lookup("difficulty")
	if flag == nil {
		t.Fatalf("expected difficulty flag")
	}
	if flag.Usage != "easy, medium, hard or any" {
		t.Fatalf("unexpected usage %q", flag.Usage)
	}
}

func autoPlay(game *app.Game, pick func(app.Snapshot, domain.Question) string, finals ...string) io.Reader {
	pr, pw := io.Pipe()
	updates, cancel := game.Subscribe()
	go func() {
		defer cancel()
		defer pw.Close()
		last := -1
		for snap := range updates {
			switch snap.Status.Kind {
			case domain.StatusLoading:
				last = -1
			case domain.StatusPlaying:
				if snap.Question == nil || snap.Index == last {
					continue
				}
				last = snap.Index
				q, _ := game.CurrentQuestion()
				fmt.Fprintln(pw, pick(snap, q))
			case domain.StatusFinished, domain.StatusError:
				if len(finals) == 0 {
					return
				}
				fmt.Fprintln(pw, finals[0])
				finals = finals[1:]
				if len(finals) == 0 {
					return
				}
			}
		}
	}()
	return pr
}

func correctLetter(snap app.Snapshot, q domain.Question) string {
	for i, answer := range snap.Question.Answers {
		if answer == q.CorrectAnswer {
			return string(rune('A' + i))
		}
	}
	return "?"
}

type stubSource struct {
	questions []domain.Question
}

func (s *stubSource) FetchQuestions(_ context.Context, query domain.QuestionQuery) ([]domain.Question, error) {
	if query.Amount < len(s.questions) {
		return s.questions[:query.Amount], nil
	}
	return s.questions, nil
}

func sampleBatch() []domain.Question {
	return []domain.Question{
		{Category: "Geography", Kind: domain.KindMultiple, Difficulty: domain.DifficultyEasy, Text: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon", "Nice", "Lille"}},
		{Category: "Science", Kind: domain.KindMultiple, Difficulty: domain.DifficultyMedium, Text: "H2O is?", CorrectAnswer: "Water", IncorrectAnswers: []string{"Salt", "Iron", "Gold"}},
		{Category: "History", Kind: domain.KindBoolean, Difficulty: domain.DifficultyHard, Text: "Rome was founded in 753 BC.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
	}
}
