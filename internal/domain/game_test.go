package domain

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"
)

func TestPointsByDifficulty(t *testing.T) {
	cases := map[Difficulty]int{
		DifficultyEasy:   10,
		DifficultyMedium: 20,
		DifficultyHard:   30,
		"other":          10,
		"":               10,
	}
	for d, want := range cases {
		if got := Points(d); got != want {
			t.Fatalf("points(%q) = %d, want %d", d, got, want)
		}
	}
}

func TestGameOptionsNormalizeAndValidate(t *testing.T) {
	opts := GameOptions{Difficulty: DifficultyAny}.Normalize()
	if opts.Amount != DefaultAmount || opts.Difficulty != "" {
		t.Fatalf("unexpected normalized options %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("expected valid options, got %v", err)
	}

	bad := []GameOptions{
		{Amount: 51},
		{Amount: -1},
		{Amount: 5, Difficulty: "extreme"},
		{Amount: 5, Category: 3},
		{Amount: 5, TimePerQuestion: 5 * time.Second},
	}
	for _, o := range bad {
		if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("expected ErrInvalidOptions for %+v, got %v", o, err)
		}
	}

	if err := (GameOptions{Amount: 5, Category: 9, TimePerQuestion: 30 * time.Second}).Validate(); err != nil {
		t.Fatalf("expected valid options, got %v", err)
	}
}

func TestQuestionValid(t *testing.T) {
	q := Question{Text: "Q?", CorrectAnswer: "A", IncorrectAnswers: []string{"B", "C", "D"}}
	if !q.Valid() {
		t.Fatalf("expected valid question")
	}
	q.IncorrectAnswers = []string{"B", "A"}
	if q.Valid() {
		t.Fatalf("correct answer inside incorrect set must be invalid")
	}
}

func TestShuffledAnswersKeepsEveryAnswer(t *testing.T) {
	q := Question{Text: "Q?", CorrectAnswer: "A", IncorrectAnswers: []string{"B", "C", "D"}}
	got := q.ShuffledAnswers(rand.New(rand.NewSource(1)))
	sort.Strings(got)
	want := []string{"A", "B", "C", "D"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSummaryHelpers(t *testing.T) {
	s := ScoreSummary{CorrectAnswers: 3, TotalQuestions: 4}
	if s.SuccessRate() != 75 {
		t.Fatalf("expected 75%%, got %v", s.SuccessRate())
	}
	if (ScoreSummary{}).SuccessRate() != 0 {
		t.Fatalf("expected 0 for empty summary")
	}
	if Difficulty("").Label() != "Any" || DifficultyHard.Label() != "Hard" {
		t.Fatalf("unexpected labels")
	}
	if Difficulty("").OrAny() != DifficultyAny {
		t.Fatalf("expected any sentinel")
	}
	if Failed("boom").String() != "error(boom)" || Playing.String() != "playing" {
		t.Fatalf("unexpected status strings")
	}
}
