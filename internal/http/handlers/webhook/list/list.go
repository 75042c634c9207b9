// Package list реализует HTTP-обработчик списка зарегистрированных веб-хуков.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/webhooks"
)

// Handler управляет HTTP-запросами на список веб-хуков.
type Handler struct {
	log      *slog.Logger
	registry Registry
}

// Registry описывает интерфейс реестра веб-хуков.
type Registry interface {
	List() ([]webhooks.Registration, error)
}

// New создает новый Handler с переданными логгером и реестром.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{log: log, registry: registry}
}

// ServeHTTP godoc
// @Summary Список веб-хуков
// @Description Возвращает все зарегистрированные веб-хуки.
// @Tags Webhooks
// @Produce  json
// @Success 200 {object} response.Response "Регистрации"
// @Failure 500 {object} response.ErrorResponse "Ошибка чтения реестра"
// @Security ApiKeyAuth
// @Router /webhooks [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	registrations, err := h.registry.List()
	if err != nil {
		log.Error("failed to list webhooks", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list webhooks"))
		return
	}

	render.JSON(w, r, response.OKWithData(registrations))
}
