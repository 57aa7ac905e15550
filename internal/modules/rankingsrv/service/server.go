package service

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

// Store — то, что серверу нужно от хранилища (pgx-реализация в ./pg).
type Store interface {
	Ranking(ctx context.Context, limit, offset int) ([]models.PlayerStats, error)
	Player(ctx context.Context, telegramID string) (*models.PlayerStats, error)
	RecordTrade(ctx context.Context, res models.TradeResult) (*models.PlayerStats, error)
	Stats(ctx context.Context) (*Stats, error)
	Reset(ctx context.Context) error
}

// Server — HTTP-ручки рейтинг-сервиса.
type Server struct {
	store    Store
	adminKey string
}

func NewServer(store Store, adminKey string) *Server {
	return &Server{store: store, adminKey: adminKey}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ranking", s.withSpan("ranking.list", s.handleRanking))
	mux.HandleFunc("GET /api/player/{id}", s.withSpan("ranking.player", s.handlePlayer))
	mux.HandleFunc("POST /api/trade", s.withSpan("ranking.trade", s.handleTrade))
	mux.HandleFunc("GET /api/stats", s.withSpan("ranking.stats", s.handleStats))
	mux.HandleFunc("POST /api/admin/reset", s.withSpan("ranking.admin_reset", s.handleAdminReset))
	return mux
}

func (s *Server) withSpan(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span := opentracing.StartSpan(name)
		defer span.Finish()
		h(w, r.WithContext(opentracing.ContextWithSpan(r.Context(), span)))
	}
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	recs, err := s.store.Ranking(r.Context(), limit, offset)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ranking": recs})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.store.Player(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if player == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "игрок не найден"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "player": player})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	var res models.TradeResult
	if err := sonic.Unmarshal(body, &res); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if res.TelegramID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "error": "необходимы telegramId и profit",
		})
		return
	}
	if res.Username == "" {
		res.Username = "Player_" + res.TelegramID
	}

	player, err := s.store.RecordTrade(r.Context(), res)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "результат сделки сохранён",
		"player":  player,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminKey string `json:"adminKey"`
	}
	body, _ := io.ReadAll(r.Body)
	_ = sonic.Unmarshal(body, &req)

	if s.adminKey == "" || req.AdminKey != s.adminKey {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": "доступ запрещён"})
		return
	}
	if err := s.store.Reset(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "рейтинг сброшен"})
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	logger.Error("ranking http: %v", err)
	writeJSON(w, code, map[string]any{"success": false, "error": "внутренняя ошибка сервера"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	b, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("marshal response: %v", err)
		return
	}
	_, _ = w.Write(b)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
