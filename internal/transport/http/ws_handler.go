package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.TriviaService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TriviaService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Difficulty      domain.Difficulty `json:"difficulty"`
	Amount          int               `json:"amount"`
	Category        int               `json:"category"`
	TimePerQuestion int               `json:"timePerQuestion"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one game per connection.
// Passing ?sessionId= reattaches to a game that is still live.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var game *app.Game
	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		found, err := h.service.Game(sessionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		game = found
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if game == nil {
		game = h.service.NewGame()
	}
	logger := h.logger.With("session_id", game.ID())

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	updates, cancel := game.Subscribe()
	defer h.service.Leave(game.ID())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", "error", err)
				conn.Close()
				return
			}
		}
	}()

	enqueue(send, writerDone, outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: game.ID()}})

	go func() {
		defer close(updatesDone)
		timer := newQuestionTimer(game)
		defer timer.stop()
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				timer.track(snap)
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply *outboundMessage[any]
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					reply = errorMessage("invalid start payload")
					break
				}
			}
			opts := h.service.Options(domain.GameOptions{
				Difficulty:      payload.Difficulty,
				Amount:          payload.Amount,
				Category:        payload.Category,
				TimePerQuestion: time.Duration(payload.TimePerQuestion) * time.Second,
			})
			go game.Start(ctx, opts)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = errorMessage("invalid answer payload")
				break
			}
			if _, ok := game.CurrentQuestion(); !ok {
				reply = errorMessage("no question in play")
				break
			}
			reply = &outboundMessage[any]{Type: "answerResult", Payload: game.Answer(payload.Answer)}
		case "next":
			game.Advance()
		case "restart":
			go game.Restart(ctx)
		default:
			reply = errorMessage("unsupported message type")
		}
		if reply != nil && !enqueue(send, writerDone, *reply) {
			break read
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer goroutine. It reports false once the
// writer has stopped.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func errorMessage(message string) *outboundMessage[any] {
	return &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

// questionTimer advances the game when the presented question's deadline passes.
type questionTimer struct {
	game  *app.Game
	index int
	timer *time.Timer
}

func newQuestionTimer(game *app.Game) *questionTimer {
	return &questionTimer{game: game, index: -1}
}

func (t *questionTimer) track(snap app.Snapshot) {
	if snap.Status.Kind != domain.StatusPlaying || snap.Deadline == nil {
		t.stop()
		return
	}
	if t.timer != nil && t.index == snap.Index {
		return
	}
	t.stop()
	index := snap.Index
	t.index = index
	t.timer = time.AfterFunc(time.Until(*snap.Deadline), func() {
		t.game.Timeout(index)
	})
}

func (t *questionTimer) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.index = -1
}
