package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"trivia-legends/internal/domain"
)

// ScoreStore is the durable table of completed-game summaries.
// MaxByScore and MinByScore return domain.ErrScoreNotFound when empty; ties
// resolve to the earliest summary.
type ScoreStore interface {
	Append(ctx context.Context, summary *domain.ScoreSummary) error
	ListAll(ctx context.Context) ([]domain.ScoreSummary, error)
	MaxByScore(ctx context.Context) (domain.ScoreSummary, error)
	MinByScore(ctx context.Context) (domain.ScoreSummary, error)
	Average(ctx context.Context) (float64, error)
}

// ScoreService serves the scores screen and keeps a live stats feed.
type ScoreService struct {
	store  ScoreStore
	logger *slog.Logger
	feed   *Feed[domain.ScoreStats]

	// refresh orders stats reads with their publishes.
	refresh sync.Mutex
}

func NewScoreService(store ScoreStore, logger *slog.Logger) *ScoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreService{
		store:  store,
		logger: logger,
		feed:   NewFeed(domain.ScoreStats{}),
	}
}

// RecordSummary appends a summary and pushes refreshed stats to watchers.
func (s *ScoreService) RecordSummary(ctx context.Context, summary domain.ScoreSummary) error {
	if err := s.store.Append(ctx, &summary); err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	s.logger.Info("score recorded", "id", summary.ID, "score", summary.Score, "difficulty", summary.Difficulty)

	s.refresh.Lock()
	defer s.refresh.Unlock()
	stats, err := s.Stats(ctx)
	if err != nil {
		s.logger.Warn("refresh score stats failed", "error", err)
		return nil
	}
	s.feed.Publish(stats)
	return nil
}

// History lists every summary, newest first.
func (s *ScoreService) History(ctx context.Context) ([]domain.ScoreSummary, error) {
	return s.store.ListAll(ctx)
}

// Best returns the highest score, or domain.ErrScoreNotFound.
func (s *ScoreService) Best(ctx context.Context) (domain.ScoreSummary, error) {
	return s.store.MaxByScore(ctx)
}

// Worst returns the lowest score, or domain.ErrScoreNotFound.
func (s *ScoreService) Worst(ctx context.Context) (domain.ScoreSummary, error) {
	return s.store.MinByScore(ctx)
}

// Average returns the mean score, 0 when nothing is recorded.
func (s *ScoreService) Average(ctx context.Context) (float64, error) {
	return s.store.Average(ctx)
}

// Stats builds the full scores screen model.
func (s *ScoreService) Stats(ctx context.Context) (domain.ScoreStats, error) {
	history, err := s.store.ListAll(ctx)
	if err != nil {
		return domain.ScoreStats{}, err
	}
	stats := domain.ScoreStats{History: history}

	best, err := s.store.MaxByScore(ctx)
	switch {
	case err == nil:
		stats.Best = &best
	case !errors.Is(err, domain.ErrScoreNotFound):
		return domain.ScoreStats{}, err
	}

	worst, err := s.store.MinByScore(ctx)
	switch {
	case err == nil:
		stats.Worst = &worst
	case !errors.Is(err, domain.ErrScoreNotFound):
		return domain.ScoreStats{}, err
	}

	if stats.Average, err = s.store.Average(ctx); err != nil {
		return domain.ScoreStats{}, err
	}
	return stats, nil
}

// Watch returns a channel that receives fresh stats after every recorded game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ScoreService) Watch(ctx context.Context) (<-chan domain.ScoreStats, func(), error) {
	s.refresh.Lock()
	defer s.refresh.Unlock()
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.feed.Publish(stats)
	ch, cancel := s.feed.Subscribe()
	return ch, cancel, nil
}
