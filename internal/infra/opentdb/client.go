package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trivia-legends/internal/domain"
)

const (
	DefaultBaseURL = "https://opentdb.com/"
	defaultTimeout = 10 * time.Second
	questionType   = "multiple"
)

// Response codes documented by Open Trivia DB.
const (
	codeSuccess       = 0
	codeNoResults     = 1
	codeInvalidParam  = 2
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
	codeRateLimit     = 5
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type categoryResponse struct {
	Categories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

// Client talks to the Open Trivia DB REST API.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, baseURL: baseURL, logger: logger}
}

// FetchQuestions requests one batch of multiple-choice questions.
func (c *Client) FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error) {
	amount := query.Amount
	if amount <= 0 {
		amount = domain.DefaultAmount
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	params.Set("type", questionType)
	if query.Category > 0 {
		params.Set("category", strconv.Itoa(query.Category))
	}
	if query.Difficulty != "" && query.Difficulty != domain.DifficultyAny {
		params.Set("difficulty", string(query.Difficulty))
	}

	var payload apiResponse
	if err := c.getJSON(ctx, "api.php?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != codeSuccess {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestionSource, describeCode(payload.ResponseCode))
	}

	questions := make([]domain.Question, 0, len(payload.Results))
	for _, raw := range payload.Results {
		q := decodeQuestion(raw)
		if !q.Valid() {
			c.logger.Warn("dropping malformed question", "question", q.Text)
			continue
		}
		questions = append(questions, q)
	}
	c.logger.Debug("fetched questions", "requested", amount, "received", len(questions))
	return questions, nil
}

// LoadCategories lists the categories that can filter a batch.
func (c *Client) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var payload categoryResponse
	if err := c.getJSON(ctx, "api_category.php", &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCategoriesUnavailable, err)
	}
	categories := make([]domain.Category, 0, len(payload.Categories))
	for _, item := range payload.Categories {
		categories = append(categories, domain.Category{ID: item.ID, Name: item.Name})
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQuestionSource, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQuestionSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: opentdb returned status %d", domain.ErrQuestionSource, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrQuestionSource, err)
	}
	return nil
}

func decodeQuestion(raw RawQuestion) domain.Question {
	incorrect := make([]string, 0, len(raw.IncorrectAnswers))
	for _, answer := range raw.IncorrectAnswers {
		incorrect = append(incorrect, html.UnescapeString(answer))
	}
	return domain.Question{
		Category:         html.UnescapeString(raw.Category),
		Kind:             raw.Type,
		Difficulty:       domain.Difficulty(raw.Difficulty),
		Text:             html.UnescapeString(raw.Question),
		CorrectAnswer:    html.UnescapeString(raw.CorrectAnswer),
		IncorrectAnswers: incorrect,
	}
}

func describeCode(code int) string {
	switch code {
	case codeNoResults:
		return "not enough questions for the query"
	case codeInvalidParam:
		return "invalid parameter"
	case codeTokenNotFound:
		return "session token not found"
	case codeTokenEmpty:
		return "session token exhausted"
	case codeRateLimit:
		return "rate limited"
	default:
		return "response_code=" + strconv.Itoa(code)
	}
}
