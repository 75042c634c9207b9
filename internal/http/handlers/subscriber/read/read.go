// Package read реализует HTTP-обработчик чтения одного абонента.
//
// Handler извлекает логин из URL, запрашивает каноническое описание
// абонента у сервиса и возвращает его в JSON-формате.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// Handler управляет HTTP-запросами на чтение абонента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения абонента.
type Service interface {
	Get(ctx context.Context, username string) (*models.Subscriber, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить абонента
// @Description Возвращает каноническое описание абонента, восстановленное из строк radcheck/radreply.
// @Tags Subscribers
// @Produce  json
// @Param username path string true "Логин абонента"
// @Success 200 {object} response.Response "Абонент"
// @Failure 404 {object} response.ErrorResponse "Абонент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security ApiKeyAuth
// @Router /subscribers/{username} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username := chi.URLParam(r, "username")
	if username == "" {
		log.Error("empty username in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("username is required"))
		return
	}

	subscriber, err := h.service.Get(r.Context(), username)
	if err != nil {
		log.Error("failed to read subscriber", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFrom(err))
		return
	}

	render.JSON(w, r, response.OKWithData(subscriber))
}
