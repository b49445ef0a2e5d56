package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"trivia-legends/internal/domain"
)

// QuestionSource fetches question batches from the question bank.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error)
}

// ScoreRecorder receives the summary of every finished game. It is called after
// Finished is already observable.
type ScoreRecorder interface {
	RecordSummary(ctx context.Context, summary domain.ScoreSummary) error
}

// Snapshot is the observable state of a game.
type Snapshot struct {
	SessionID      string                 `json:"sessionId"`
	Status         domain.GameStatus      `json:"status"`
	Index          int                    `json:"index"`
	Total          int                    `json:"total"`
	Score          int                    `json:"score"`
	CorrectAnswers int                    `json:"correctAnswers"`
	Difficulty     domain.Difficulty      `json:"difficulty,omitempty"`
	Category       int                    `json:"category,omitempty"`
	Question       *domain.PublicQuestion `json:"question,omitempty"`
	Deadline       *time.Time             `json:"deadline,omitempty"`
}

// Game is the session controller for one player: it owns the fetched batch,
// the cursor and the running score.
type Game struct {
	id       string
	source   QuestionSource
	recorder ScoreRecorder
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	rnd       *rand.Rand
	gen       uint64
	opts      domain.GameOptions
	questions []domain.Question
	answered  []bool
	index     int
	score     int
	correct   int
	status    domain.GameStatus
	current   *domain.PublicQuestion
	deadline  time.Time
	feed      *Feed[Snapshot]
}

func NewGame(id string, source QuestionSource, recorder ScoreRecorder, logger *slog.Logger) *Game {
	return NewGameWithClock(id, source, recorder, logger, time.Now)
}

// NewGameWithClock allows deterministic timestamps in tests.
func NewGameWithClock(id string, source QuestionSource, recorder ScoreRecorder, logger *slog.Logger, now func() time.Time) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Game{
		id:       id,
		source:   source,
		recorder: recorder,
		logger:   logger.With("session_id", id),
		now:      now,
		rnd:      rand.New(rand.NewSource(now().UnixNano())),
		status:   domain.Loading,
	}
	g.feed = NewFeed(Snapshot{SessionID: id, Status: domain.Loading})
	return g
}

func (g *Game) ID() string { return g.id }

// Start resets the counters, fetches a new batch and moves to Playing, or to
// Error when the fetch fails or comes back empty.
func (g *Game) Start(ctx context.Context, opts domain.GameOptions) domain.GameStatus {
	opts = opts.Normalize()

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.opts = opts
	g.index, g.score, g.correct = 0, 0, 0
	g.status = domain.Loading
	g.current = nil
	g.deadline = time.Time{}
	g.publishLocked()
	g.mu.Unlock()

	if err := opts.Validate(); err != nil {
		return g.fail(gen, err.Error())
	}

	questions, err := g.source.FetchQuestions(ctx, opts.Query())
	if err != nil {
		g.logger.Warn("question fetch failed", "error", err, "amount", opts.Amount, "difficulty", opts.Difficulty)
		return g.fail(gen, "error loading questions: "+err.Error())
	}
	if len(questions) == 0 {
		return g.fail(gen, domain.ErrNoQuestions.Error())
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return g.status
	}
	g.questions = append([]domain.Question(nil), questions...)
	g.answered = make([]bool, len(questions))
	g.status = domain.Playing
	g.presentLocked()
	g.publishLocked()
	g.logger.Info("game started", "questions", len(questions), "difficulty", opts.Difficulty.OrAny())
	return g.status
}

// Restart starts again with the previous filters and the previous batch size.
func (g *Game) Restart(ctx context.Context) domain.GameStatus {
	g.mu.Lock()
	opts := g.opts
	if len(g.questions) > 0 {
		opts.Amount = len(g.questions)
	}
	g.mu.Unlock()
	return g.Start(ctx, opts)
}

// CurrentQuestion returns the question under the cursor while playing.
func (g *Game) CurrentQuestion() (domain.Question, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked()
}

// SubmitAnswer reports whether answer matches the current correct answer exactly.
func (g *Game) SubmitAnswer(answer string) bool {
	return g.Answer(answer).Correct
}

// Answer scores a submission for the current question. A question awards
// points once, on its first correct submission; the cursor does not move.
func (g *Game) Answer(answer string) domain.AnswerResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	q, ok := g.currentLocked()
	if !ok {
		return domain.AnswerResult{TotalScore: g.score}
	}

	result := domain.AnswerResult{
		Correct:       answer == q.CorrectAnswer,
		CorrectAnswer: q.CorrectAnswer,
	}
	if result.Correct && !g.answered[g.index] {
		result.Awarded = domain.Points(q.Difficulty)
		g.score += result.Awarded
		g.correct++
		g.answered[g.index] = true
	}
	result.TotalScore = g.score
	g.publishLocked()
	return result
}

// Advance moves to the next question. It returns false once the batch is
// exhausted, at which point the game is Finished and its summary recorded.
func (g *Game) Advance() bool {
	g.mu.Lock()
	if g.status.Kind != domain.StatusPlaying {
		g.mu.Unlock()
		return false
	}
	return g.advanceLocked()
}

// Timeout advances past question index if it is still the current one.
// Timers use it so a late expiry never skips a question the player already left.
func (g *Game) Timeout(index int) bool {
	g.mu.Lock()
	if g.status.Kind != domain.StatusPlaying || g.index != index {
		g.mu.Unlock()
		return false
	}
	g.answered[g.index] = true
	return g.advanceLocked()
}

// advanceLocked must be called with g.mu held; it releases the lock.
func (g *Game) advanceLocked() bool {
	g.index++
	if g.index < len(g.questions) {
		g.presentLocked()
		g.publishLocked()
		g.mu.Unlock()
		return true
	}

	g.status = domain.Finished
	g.current = nil
	g.deadline = time.Time{}
	summary := domain.ScoreSummary{
		CreatedAt:      g.now(),
		Score:          g.score,
		Difficulty:     g.opts.Difficulty.OrAny(),
		CorrectAnswers: g.correct,
		TotalQuestions: len(g.questions),
	}
	g.publishLocked()
	g.mu.Unlock()

	g.logger.Info("game finished", "score", summary.Score, "correct", summary.CorrectAnswers, "total", summary.TotalQuestions)
	g.record(summary)
	return false
}

// Status returns the current state.
func (g *Game) Status() domain.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Snapshot returns the latest observable state.
func (g *Game) Snapshot() Snapshot {
	return g.feed.Latest()
}

// Subscribe returns a channel that receives every state change.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan Snapshot, func()) {
	return g.feed.Subscribe()
}

// Watchers reports how many subscriptions are open.
func (g *Game) Watchers() int {
	return g.feed.Subscribers()
}

func (g *Game) fail(gen uint64, message string) domain.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return g.status
	}
	g.questions = nil
	g.answered = nil
	g.status = domain.Failed(message)
	g.publishLocked()
	return g.status
}

func (g *Game) record(summary domain.ScoreSummary) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordSummary(context.Background(), summary); err != nil {
		g.logger.Error("record score summary failed", "error", err, "score", summary.Score)
	}
}

func (g *Game) currentLocked() (domain.Question, bool) {
	if g.status.Kind != domain.StatusPlaying || g.index < 0 || g.index >= len(g.questions) {
		return domain.Question{}, false
	}
	return g.questions[g.index], true
}

func (g *Game) presentLocked() {
	q := g.questions[g.index]
	g.current = &domain.PublicQuestion{
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Text:       q.Text,
		Answers:    q.ShuffledAnswers(g.rnd),
	}
	g.deadline = time.Time{}
	if g.opts.TimePerQuestion > 0 {
		g.deadline = g.now().Add(g.opts.TimePerQuestion)
	}
}

func (g *Game) publishLocked() {
	total := len(g.questions)
	if g.status.Kind == domain.StatusLoading {
		total = 0
	}
	snap := Snapshot{
		SessionID:      g.id,
		Status:         g.status,
		Index:          g.index,
		Total:          total,
		Score:          g.score,
		CorrectAnswers: g.correct,
		Difficulty:     g.opts.Difficulty,
		Category:       g.opts.Category,
		Question:       g.current,
	}
	if !g.deadline.IsZero() {
		d := g.deadline
		snap.Deadline = &d
	}
	g.feed.Publish(snap)
}
