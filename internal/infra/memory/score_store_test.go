package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-legends/internal/domain"
)

func TestScoreStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.MaxByScore(ctx); !errors.Is(err, domain.ErrScoreNotFound) {
		t.Fatalf("expected not found on empty store, got %v", err)
	}
	if avg, _ := store.Average(ctx); avg != 0 {
		t.Fatalf("expected zero average, got %v", avg)
	}

	for i, score := range []int{40, 90, 10, 90} {
		summary := &domain.ScoreSummary{
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			Score:          score,
			Difficulty:     domain.DifficultyMedium,
			CorrectAnswers: score / 20,
			TotalQuestions: 5,
		}
		if err := store.Append(ctx, summary); err != nil {
			t.Fatalf("append: %v", err)
		}
		if summary.ID != int64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, summary.ID)
		}
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 4 || all[0].ID != 4 || all[3].ID != 1 {
		t.Fatalf("expected newest first, got %+v", all)
	}

	best, err := store.MaxByScore(ctx)
	if err != nil || best.ID != 2 {
		t.Fatalf("expected earliest 90 as best, got %+v (%v)", best, err)
	}
	worst, err := store.MinByScore(ctx)
	if err != nil || worst.Score != 10 {
		t.Fatalf("expected 10 as worst, got %+v (%v)", worst, err)
	}
	if avg, _ := store.Average(ctx); avg != 57.5 {
		t.Fatalf("expected average 57.5, got %v", avg)
	}
}
