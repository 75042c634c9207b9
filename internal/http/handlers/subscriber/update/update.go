// Package update реализует HTTP-обработчик частичного обновления абонента.
//
// Секрет и пул адресов меняются независимо, скорости — только парой.
// Поля, отсутствующие в JSON, остаются нетронутыми.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// Handler управляет HTTP-запросами на обновление абонента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления абонента.
type Service interface {
	Update(ctx context.Context, username string, req models.UpdateSubscriberRequest) (*models.Subscriber, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить абонента
// @Description Частично обновляет абонента: секрет, пару скоростей и пул адресов. Пустой plan очищает пул.
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param username path string true "Логин абонента"
// @Param request body models.UpdateSubscriberRequest true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновлённый абонент"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Абонент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security ApiKeyAuth
// @Router /subscribers/{username} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.update"
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

	var req models.UpdateSubscriberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("username", username))

	subscriber, err := h.service.Update(r.Context(), username, req)
	if err != nil {
		log.Error("failed to update subscriber", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFrom(err))
		return
	}

	log.Info("subscriber updated", slog.String("username", username))
	render.JSON(w, r, response.OKWithData(subscriber))
}
