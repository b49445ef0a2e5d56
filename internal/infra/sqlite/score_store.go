package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"trivia-legends/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const defaultPath = "trivia.db"

// ScoreStore keeps completed-game summaries in a local SQLite file.
type ScoreStore struct {
	db *sql.DB
}

func NewScoreStore(ctx context.Context, path string) (*ScoreStore, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &ScoreStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *ScoreStore) Close() error {
	return s.db.Close()
}

func (s *ScoreStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date INTEGER NOT NULL,
			score INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			correct_answers INTEGER NOT NULL,
			total_questions INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_user_scores_date ON user_scores(date DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_user_scores_score ON user_scores(score DESC);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *ScoreStore) Append(ctx context.Context, summary *domain.ScoreSummary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_scores (date, score, difficulty, correct_answers, total_questions) VALUES (?, ?, ?, ?, ?)`,
		summary.CreatedAt.UnixMilli(), summary.Score, string(summary.Difficulty.OrAny()), summary.CorrectAnswers, summary.TotalQuestions,
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	summary.ID = id
	return nil
}

func (s *ScoreStore) ListAll(ctx context.Context) ([]domain.ScoreSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, score, difficulty, correct_answers, total_questions FROM user_scores ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
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
	return s.one(ctx, `SELECT id, date, score, difficulty, correct_answers, total_questions FROM user_scores ORDER BY score DESC, date ASC, id ASC LIMIT 1`)
}

func (s *ScoreStore) MinByScore(ctx context.Context) (domain.ScoreSummary, error) {
	return s.one(ctx, `SELECT id, date, score, difficulty, correct_answers, total_questions FROM user_scores ORDER BY score ASC, date ASC, id ASC LIMIT 1`)
}

func (s *ScoreStore) Average(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(score) FROM user_scores`).Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (s *ScoreStore) one(ctx context.Context, query string) (domain.ScoreSummary, error) {
	summary, err := scanSummary(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScoreSummary{}, domain.ErrScoreNotFound
	}
	return summary, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (domain.ScoreSummary, error) {
	var (
		summary    domain.ScoreSummary
		dateMillis int64
		difficulty string
	)
	if err := row.Scan(&summary.ID, &dateMillis, &summary.Score, &difficulty, &summary.CorrectAnswers, &summary.TotalQuestions); err != nil {
		return domain.ScoreSummary{}, err
	}
	summary.CreatedAt = time.UnixMilli(dateMillis).UTC()
	summary.Difficulty = domain.Difficulty(difficulty)
	return summary, nil
}
