package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultAmount = 10
	MaxAmount     = 50
	pointsPerHit  = 10
)

// Multiplier weights a correct answer by the question's difficulty.
func Multiplier(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

// Points awarded for one correctly answered question.
func Points(d Difficulty) int {
	return pointsPerHit * Multiplier(d)
}

// StatusKind enumerates the game states.
type StatusKind int

const (
	StatusLoading StatusKind = iota
	StatusPlaying
	StatusFinished
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// GameStatus is the controller state. Message is only set for StatusError.
type GameStatus struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

var (
	Loading  = GameStatus{Kind: StatusLoading}
	Playing  = GameStatus{Kind: StatusPlaying}
	Finished = GameStatus{Kind: StatusFinished}
)

// Failed builds the error state.
func Failed(message string) GameStatus {
	return GameStatus{Kind: StatusError, Message: message}
}

func (s GameStatus) String() string {
	if s.Kind == StatusError {
		return "error(" + s.Message + ")"
	}
	return s.Kind.String()
}

// GameOptions configures one playthrough.
type GameOptions struct {
	Difficulty      Difficulty    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Amount          int           `json:"amount" validate:"min=0,max=50"`
	Category        int           `json:"category" validate:"omitempty,min=9,max=32"`
	TimePerQuestion time.Duration `json:"timePerQuestion" validate:"omitempty,min=10s,max=60s"`
}

var validate = validator.New()

// Normalize fills defaults. Amount 0 means DefaultAmount; "any" means no filter.
func (o GameOptions) Normalize() GameOptions {
	if o.Amount == 0 {
		o.Amount = DefaultAmount
	}
	if o.Difficulty == DifficultyAny {
		o.Difficulty = ""
	}
	return o
}

// Validate checks the options against the question bank limits.
func (o GameOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Query converts the options to a question bank request.
func (o GameOptions) Query() QuestionQuery {
	return QuestionQuery{Amount: o.Amount, Category: o.Category, Difficulty: o.Difficulty}
}
