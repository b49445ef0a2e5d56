package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/domain"
	"trivia-legends/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func TestWebSocketGameFlow(t *testing.T) {
	recorder := &captureRecorder{}
	trivia := app.NewTriviaService(memory.NewSessionStore(), &stubSource{questions: sampleQuestions()}, recorder, nil, domain.GameOptions{Amount: 10}, nil)
	server := httptest.NewServer(NewRouter(RouterConfig{Trivia: trivia, Scores: app.NewScoreService(memory.NewScoreStore(), nil)}))
	defer server.Close()

	conn := dial(t, server.URL+"/ws")
	defer conn.Close()

	_, payload := readNext(conn, t, "session")
	sessionID, _ := payload["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("expected session id, got %v", payload)
	}
	readNext(conn, t, "state")

	send(t, conn, "start", map[string]any{"difficulty": "any", "amount": 2})
	state := readUntilState(t, conn, "playing")
	if int(state["total"].(float64)) != 2 {
		t.Fatalf("expected two questions, got %v", state["total"])
	}
	question := state["question"].(map[string]any)
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatalf("public question must not carry the correct answer")
	}

	send(t, conn, "answer", map[string]any{"answer": "Paris"})
	result := readUntil(t, conn, "answerResult")
	if result["correct"] != true || int(result["awarded"].(float64)) != 20 || int(result["totalScore"].(float64)) != 20 {
		t.Fatalf("unexpected answer result %v", result)
	}

	send(t, conn, "next", nil)
	send(t, conn, "answer", map[string]any{"answer": "Nope"})
	result = readUntil(t, conn, "answerResult")
	if result["correct"] != false || result["correctAnswer"] != "8" {
		t.Fatalf("unexpected answer result %v", result)
	}

	send(t, conn, "next", nil)
	state = readUntilState(t, conn, "finished")
	if int(state["score"].(float64)) != 20 || int(state["correctAnswers"].(float64)) != 1 {
		t.Fatalf("unexpected final state %v", state)
	}

	summaries := recorder.wait(t, 1)
	if summaries[0].Score != 20 || summaries[0].TotalQuestions != 2 || summaries[0].Difficulty != domain.DifficultyAny {
		t.Fatalf("unexpected summary %+v", summaries[0])
	}

	send(t, conn, "restart", nil)
	state = readUntilState(t, conn, "playing")
	if int(state["score"].(float64)) != 0 || int(state["index"].(float64)) != 0 {
		t.Fatalf("expected reset after restart, got %v", state)
	}
}

func TestWebSocketReportsFetchErrors(t *testing.T) {
	trivia := app.NewTriviaService(memory.NewSessionStore(), &stubSource{}, nil, nil, domain.GameOptions{}, nil)
	server := httptest.NewServer(NewRouter(RouterConfig{Trivia: trivia, Scores: app.NewScoreService(memory.NewScoreStore(), nil)}))
	defer server.Close()

	conn := dial(t, server.URL+"/ws")
	defer conn.Close()
	readNext(conn, t, "session")

	send(t, conn, "answer", map[string]any{"answer": "x"})
	readUntil(t, conn, "error")

	send(t, conn, "start", map[string]any{"amount": 5})
	state := readUntilState(t, conn, "error")
	status := state["status"].(map[string]any)
	if status["message"] != "no questions found" {
		t.Fatalf("unexpected error status %v", status)
	}

	send(t, conn, "bogus", nil)
	if msg := readUntil(t, conn, "error"); msg["message"] != "unsupported message type" {
		t.Fatalf("unexpected error %v", msg)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	trivia := app.NewTriviaService(memory.NewSessionStore(), &stubSource{}, nil, nil, domain.GameOptions{}, nil)
	server := httptest.NewServer(NewRouter(RouterConfig{Trivia: trivia, Scores: app.NewScoreService(memory.NewScoreStore(), nil)}))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL+"/ws?sessionId=missing"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

func TestQuestionTimerAdvancesPastDeadline(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-time.Minute) }
	game := app.NewGameWithClock("timed", &stubSource{questions: sampleQuestions()}, nil, nil, past)
	game.Start(context.Background(), domain.GameOptions{Amount: 2, TimePerQuestion: 10 * time.Second})

	timer := newQuestionTimer(game)
	defer timer.stop()
	timer.track(game.Snapshot())

	deadline := time.Now().Add(2 * time.Second)
	for game.Snapshot().Index != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected timer to advance the game")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if game.Snapshot().Score != 0 {
		t.Fatalf("timed out question must not score")
	}
}

func TestEnqueueStopsWhenWriterIsGone(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "session"}) {
		t.Fatalf("expected message to be queued while the writer runs")
	}

	close(writerDone)
	result := make(chan bool, 1)
	go func() { result <- enqueue(send, writerDone, outboundMessage[any]{Type: "answerResult"}) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected enqueue to report a stopped writer")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked on a full queue after the writer stopped")
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(url), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == expect {
			return payload
		}
	}
	t.Fatalf("never received %s", expect)
	return nil
}

func readUntilState(t *testing.T, conn *websocket.Conn, kind string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ != "state" {
			continue
		}
		if status, ok := payload["status"].(map[string]any); ok && status["kind"] == kind {
			return payload
		}
	}
	t.Fatalf("never reached state %s", kind)
	return nil
}

type stubSource struct {
	questions []domain.Question
}

func (s *stubSource) FetchQuestions(_ context.Context, query domain.QuestionQuery) ([]domain.Question, error) {
	if query.Amount < len(s.questions) {
		return s.questions[:query.Amount], nil
	}
	return s.questions, nil
}

type captureRecorder struct {
	mu        sync.Mutex
	summaries []domain.ScoreSummary
}

func (r *captureRecorder) RecordSummary(_ context.Context, summary domain.ScoreSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *captureRecorder) wait(t *testing.T, n int) []domain.ScoreSummary {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		got := append([]domain.ScoreSummary(nil), r.summaries...)
		r.mu.Unlock()
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d summaries, got %d", n, len(got))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Category:         "Geography",
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyMedium,
			Text:             "What is the capital of France?",
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"Lyon", "Marseille", "Nice"},
		},
		{
			Category:         "Science: Mathematics",
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyEasy,
			Text:             "What is 2 cubed?",
			CorrectAnswer:    "8",
			IncorrectAnswers: []string{"6", "9", "4"},
		},
	}
}
