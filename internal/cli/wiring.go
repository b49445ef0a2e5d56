package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/config"
	"trivia-legends/internal/domain"
	"trivia-legends/internal/infra/memory"
	"trivia-legends/internal/infra/opentdb"
	"trivia-legends/internal/infra/postgres"
	"trivia-legends/internal/infra/sqlite"

	"github.com/jackc/pgx/v4/pgxpool"
)

// openScoreStore picks Postgres when configured, else the local SQLite file.
// The returned close function releases the underlying connections.
func openScoreStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (app.ScoreStore, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("score store: postgres")
		return postgres.NewScoreStore(pool), pool.Close, nil
	}
	if cfg.SQLite.Path != "" {
		store, err := sqlite.NewScoreStore(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("score store: sqlite", "path", cfg.SQLite.Path)
		return store, func() { _ = store.Close() }, nil
	}
	logger.Warn("score store: in-memory, scores are lost on exit")
	return memory.NewScoreStore(), func() {}, nil
}

func newQuestionBank(cfg config.Config, logger *slog.Logger) *opentdb.Client {
	timeout := config.TTLDuration(cfg.QuestionBank.Timeout, 10*time.Second)
	return opentdb.NewClient(&http.Client{Timeout: timeout}, cfg.QuestionBank.URL, logger)
}

func gameDefaults(cfg config.Config) domain.GameOptions {
	return domain.GameOptions{
		Difficulty:      domain.Difficulty(cfg.Game.Difficulty),
		Amount:          cfg.Game.Amount,
		Category:        cfg.Game.Category,
		TimePerQuestion: config.TTLDuration(cfg.Game.TimePerQuestion, 0),
	}
}
