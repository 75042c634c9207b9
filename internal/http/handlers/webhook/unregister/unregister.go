// Package unregister реализует HTTP-обработчик удаления регистрации веб-хука.
package unregister

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
)

// Handler управляет HTTP-запросами на удаление веб-хуков.
type Handler struct {
	log      *slog.Logger
	registry Registry
}

// Registry описывает интерфейс реестра веб-хуков.
type Registry interface {
	Remove(id string) (bool, error)
}

// New создает новый Handler с переданными логгером и реестром.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{log: log, registry: registry}
}

// ServeHTTP godoc
// @Summary Удалить веб-хук
// @Description Удаляет регистрацию по её идентификатору.
// @Tags Webhooks
// @Produce  json
// @Param id path string true "Идентификатор регистрации"
// @Success 200 {object} response.Response "Регистрация удалена"
// @Failure 404 {object} response.ErrorResponse "Регистрация не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка записи реестра"
// @Security ApiKeyAuth
// @Router /webhooks/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.unregister"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	removed, err := h.registry.Remove(id)
	if err != nil {
		log.Error("failed to unregister webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not unregister webhook"))
		return
	}
	if !removed {
		log.Error("webhook not found", slog.String("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("webhook not found"))
		return
	}

	log.Info("webhook unregistered", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]string{"id": id}))
}
