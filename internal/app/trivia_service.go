package app

import (
	"context"
	"log/slog"

	"trivia-legends/internal/domain"

	"github.com/google/uuid"
)

// SessionRepository abstracts how live games are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(sessionID string, game *Game)
	Get(sessionID string) (*Game, bool)
	Delete(sessionID string)
}

// CategoryRepository lists question bank categories (from cache/backing store).
type CategoryRepository interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// TriviaService contains the game use cases shared by the front ends.
type TriviaService struct {
	sessions   SessionRepository
	source     QuestionSource
	recorder   ScoreRecorder
	categories CategoryRepository
	defaults   domain.GameOptions
	logger     *slog.Logger
}

func NewTriviaService(sessions SessionRepository, source QuestionSource, recorder ScoreRecorder, categories CategoryRepository, defaults domain.GameOptions, logger *slog.Logger) *TriviaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriviaService{
		sessions:   sessions,
		source:     source,
		recorder:   recorder,
		categories: categories,
		defaults:   defaults,
		logger:     logger,
	}
}

// NewGame registers a fresh game under a new session id. It is not started.
func (s *TriviaService) NewGame() *Game {
	game := NewGame(uuid.NewString(), s.source, s.recorder, s.logger)
	s.sessions.Put(game.ID(), game)
	return game
}

// Game looks up a live game by session id.
func (s *TriviaService) Game(sessionID string) (*Game, error) {
	game, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return game, nil
}

// Leave drops the session once nobody is watching it any more.
func (s *TriviaService) Leave(sessionID string) {
	game, ok := s.sessions.Get(sessionID)
	if !ok || game.Watchers() > 0 {
		return
	}
	s.sessions.Delete(sessionID)
	s.logger.Debug("session closed", "session_id", sessionID)
}

// Options merges request options over the configured defaults.
func (s *TriviaService) Options(req domain.GameOptions) domain.GameOptions {
	opts := s.defaults
	if req.Difficulty != "" {
		opts.Difficulty = req.Difficulty
	}
	if req.Amount != 0 {
		opts.Amount = req.Amount
	}
	if req.Category != 0 {
		opts.Category = req.Category
	}
	if req.TimePerQuestion != 0 {
		opts.TimePerQuestion = req.TimePerQuestion
	}
	return opts
}

// Categories lists the question bank categories.
func (s *TriviaService) Categories(ctx context.Context) ([]domain.Category, error) {
	if s.categories == nil {
		return nil, domain.ErrCategoriesUnavailable
	}
	return s.categories.Categories(ctx)
}
