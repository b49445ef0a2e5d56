package domain

import (
	"math/rand"
	"time"
)

// Difficulty is the question bank's difficulty tag. The empty value means "any".
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAny    Difficulty = "any"
)

// Difficulties lists the filters accepted by the question bank.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Label returns the display name shown on score screens.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	case "", DifficultyAny:
		return "Any"
	default:
		return string(d)
	}
}

// OrAny maps an unset filter to the "any" sentinel used in summaries.
func (d Difficulty) OrAny() Difficulty {
	if d == "" {
		return DifficultyAny
	}
	return d
}

const (
	KindMultiple = "multiple"
	KindBoolean  = "boolean"
)

// Question is one decoded question bank record.
type Question struct {
	Category         string     `json:"category"`
	Kind             string     `json:"type"`
	Difficulty       Difficulty `json:"difficulty"`
	Text             string     `json:"question"`
	CorrectAnswer    string     `json:"correctAnswer"`
	IncorrectAnswers []string   `json:"incorrectAnswers"`
}

// Valid reports whether the correct answer is absent from the incorrect set.
func (q Question) Valid() bool {
	if q.Text == "" || q.CorrectAnswer == "" || len(q.IncorrectAnswers) == 0 {
		return false
	}
	for _, a := range q.IncorrectAnswers {
		if a == q.CorrectAnswer {
			return false
		}
	}
	return true
}

// ShuffledAnswers returns every answer in a fresh random order.
func (q Question) ShuffledAnswers(rnd *rand.Rand) []string {
	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.IncorrectAnswers...)
	answers = append(answers, q.CorrectAnswer)
	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers
}

// PublicQuestion is the client-facing view of a question; it never carries the correct answer.
type PublicQuestion struct {
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Text       string     `json:"question"`
	Answers    []string   `json:"answers"`
}

// QuestionQuery is a question bank request.
type QuestionQuery struct {
	Amount     int
	Category   int
	Difficulty Difficulty
}

// Category is one entry of the question bank's category list.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ScoreSummary is the durable outcome of one completed game.
type ScoreSummary struct {
	ID             int64      `json:"id"`
	CreatedAt      time.Time  `json:"createdAt"`
	Score          int        `json:"score"`
	Difficulty     Difficulty `json:"difficulty"`
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
}

// SuccessRate is the percentage of correctly answered questions.
func (s ScoreSummary) SuccessRate() float64 {
	if s.TotalQuestions <= 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100
}

// ScoreStats is the read model behind the scores screen.
type ScoreStats struct {
	History []ScoreSummary `json:"history"`
	Best    *ScoreSummary  `json:"best,omitempty"`
	Worst   *ScoreSummary  `json:"worst,omitempty"`
	Average float64        `json:"average"`
}

// AnswerResult summarizes the outcome of one submission.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	Awarded       int    `json:"awarded"`
	TotalScore    int    `json:"totalScore"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}
