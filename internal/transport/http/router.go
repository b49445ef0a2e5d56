package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trivia-legends/internal/app"
	"trivia-legends/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Trivia         *app.TriviaService
	Scores         *app.ScoreService
	Logger         *slog.Logger
	AllowedOrigins []string
	// Sessions, when set, makes /healthz report live sessions and fail
	// while the session store is unreachable.
	Sessions SessionCounter
}

// SessionCounter counts games that are still live.
type SessionCounter interface {
	Live(ctx context.Context) (int, error)
}

// NewRouter mounts the websocket game endpoint and the REST API.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	ws := NewWSHandler(cfg.Trivia, cfg.Logger)
	api := &apiHandler{trivia: cfg.Trivia, scores: cfg.Scores, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(cfg.Logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Sessions != nil {
			live, err := cfg.Sessions.Live(r.Context())
			if err != nil {
				cfg.Logger.Warn("session store health check failed", "error", err)
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("X-Live-Sessions", strconv.Itoa(live))
		}
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Get("/ws/scores", NewScoresWSHandler(cfg.Scores, cfg.Logger).ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/categories", api.categories)
		r.Route("/scores", func(r chi.Router) {
			r.Get("/", api.history)
			r.Get("/best", api.best)
			r.Get("/worst", api.worst)
			r.Get("/average", api.average)
			r.Get("/stats", api.stats)
			r.Get("/export.xlsx", api.exportXLSX)
		})
	})
	return r
}

type apiHandler struct {
	trivia *app.TriviaService
	scores *app.ScoreService
	logger *slog.Logger
}

type errResp struct {
	Error string `json:"error"`
}

func (h *apiHandler) categories(w http.ResponseWriter, r *http.Request) {
	list, err := h.trivia.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *apiHandler) history(w http.ResponseWriter, r *http.Request) {
	list, err := h.scores.History(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []domain.ScoreSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *apiHandler) best(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scores.Best(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *apiHandler) worst(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scores.Worst(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *apiHandler) average(w http.ResponseWriter, r *http.Request) {
	avg, err := h.scores.Average(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"average": avg})
}

func (h *apiHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scores.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if stats.History == nil {
		stats.History = []domain.ScoreSummary{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *apiHandler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.scores.ExportXLSX(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="scores.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *apiHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrScoreNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCategoriesUnavailable), errors.Is(err, domain.ErrQuestionSource):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request at a level derived from the status code.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			level := slog.LevelInfo
			if status >= 400 {
				level = slog.LevelWarn
			}
			if status >= 500 {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "HTTP Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
