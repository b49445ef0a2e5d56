package http

import (
	"log/slog"
	"net/http"

	"trivia-legends/internal/app"

	"github.com/gorilla/websocket"
)

// ScoresWSHandler streams fresh score stats after every recorded game.
type ScoresWSHandler struct {
	scores   *app.ScoreService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewScoresWSHandler(scores *app.ScoreService, logger *slog.Logger) *ScoresWSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoresWSHandler{
		scores: scores,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ScoresWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	updates, cancel, err := h.scores.Watch(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// the read loop only notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case stats, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "scores", Payload: stats}); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
