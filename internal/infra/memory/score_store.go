package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-legends/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore.
type ScoreStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []domain.ScoreSummary
	clock  func() time.Time
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{nextID: 1, clock: time.Now}
}

func (s *ScoreStore) Append(_ context.Context, summary *domain.ScoreSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary.ID = s.nextID
	s.nextID++
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = s.clock()
	}
	s.rows = append(s.rows, *summary)
	return nil
}

func (s *ScoreStore) ListAll(_ context.Context) ([]domain.ScoreSummary, error) {
	s.mu.RLock()
	out := append([]domain.ScoreSummary(nil), s.rows...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *ScoreStore) MaxByScore(_ context.Context) (domain.ScoreSummary, error) {
	return s.pick(func(a, b domain.ScoreSummary) bool { return a.Score > b.Score })
}

func (s *ScoreStore) MinByScore(_ context.Context) (domain.ScoreSummary, error) {
	return s.pick(func(a, b domain.ScoreSummary) bool { return a.Score < b.Score })
}

func (s *ScoreStore) Average(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rows) == 0 {
		return 0, nil
	}
	total := 0
	for _, row := range s.rows {
		total += row.Score
	}
	return float64(total) / float64(len(s.rows)), nil
}

// pick returns the row that wins under better; ties go to the earliest row.
func (s *ScoreStore) pick(better func(a, b domain.ScoreSummary) bool) (domain.ScoreSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rows) == 0 {
		return domain.ScoreSummary{}, domain.ErrScoreNotFound
	}
	best := s.rows[0]
	for _, row := range s.rows[1:] {
		if better(row, best) || (row.Score == best.Score && row.CreatedAt.Before(best.CreatedAt)) {
			best = row
		}
	}
	return best, nil
}
