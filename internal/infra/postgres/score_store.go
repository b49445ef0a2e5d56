package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trivia-legends/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const summaryColumns = `id, created_at, score, difficulty, correct_answers, total_questions`

// ScoreStore persists score summaries in the score_summaries table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) Append(ctx context.Context, summary *domain.ScoreSummary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO score_summaries (created_at, score, difficulty, correct_answers, total_questions)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		summary.CreatedAt, summary.Score, string(summary.Difficulty.OrAny()), summary.CorrectAnswers, summary.TotalQuestions,
	).Scan(&summary.ID)
	if err != nil {
		return fmt.Errorf("insert score summary: %w", err)
	}
	return nil
}

func (s *ScoreStore) ListAll(ctx context.Context) ([]domain.ScoreSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+summaryColumns+` FROM score_summaries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list score summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *ScoreStore) MaxByScore(ctx context.Context) (domain.ScoreSummary, error) {
	return s.one(ctx, `SELECT `+summaryColumns+` FROM score_summaries ORDER BY score DESC, created_at ASC, id ASC LIMIT 1`)
}

func (s *ScoreStore) MinByScore(ctx context.Context) (domain.ScoreSummary, error) {
	return s.one(ctx, `SELECT `+summaryColumns+` FROM score_summaries ORDER BY score ASC, created_at ASC, id ASC LIMIT 1`)
}

func (s *ScoreStore) Average(ctx context.Context) (float64, error) {
	var avg *float64
	if err := s.pool.QueryRow(ctx, `SELECT AVG(score)::float8 FROM score_summaries`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average score: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (s *ScoreStore) one(ctx context.Context, query string) (domain.ScoreSummary, error) {
	summary, err := scanSummary(s.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoreSummary{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.ScoreSummary{}, fmt.Errorf("load score summary: %w", err)
	}
	return summary, nil
}

func scanSummary(row pgx.Row) (domain.ScoreSummary, error) {
	var (
		summary    domain.ScoreSummary
		difficulty string
	)
	if err := row.Scan(&summary.ID, &summary.CreatedAt, &summary.Score, &difficulty, &summary.CorrectAnswers, &summary.TotalQuestions); err != nil {
		return domain.ScoreSummary{}, err
	}
	summary.Difficulty = domain.Difficulty(difficulty)
	return summary, nil
}
