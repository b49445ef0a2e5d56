package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session id is unknown.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrNoQuestions is returned when the question bank yields an empty batch.
	ErrNoQuestions = errors.New("no questions found")
	// ErrQuestionSource wraps transport, status and decode failures of the question bank.
	ErrQuestionSource = errors.New("question bank request failed")
	// ErrInvalidOptions indicates game options failed validation.
	ErrInvalidOptions = errors.New("invalid game options")
	// ErrScoreNotFound is returned by aggregate reads over an empty score store.
	ErrScoreNotFound = errors.New("no scores recorded")
	// ErrCategoriesUnavailable indicates the category list could not be loaded.
	ErrCategoriesUnavailable = errors.New("categories unavailable")
)
