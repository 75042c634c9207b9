// Package health реализует HTTP-обработчик проверки живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
)

// Pinger описывает проверку соединения с хранилищем.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler управляет HTTP-запросами проверки живости.
type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

// New создает новый Handler с переданными логгером и хранилищем.
func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{log: log, pinger: pinger}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Возвращает статус сервиса и доступность базы данных.
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Сервис жив"
// @Failure 503 {object} response.ErrorResponse "База недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.log.Error("database ping failed", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]string{"status": "alive"}))
}
