// Package remove реализует HTTP-обработчик удаления абонента.
//
// Удаляются все строки абонента из radcheck, radreply и radusergroup
// в одной транзакции.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
)

// Handler управляет HTTP-запросами на удаление абонента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления абонента.
type Service interface {
	Delete(ctx context.Context, username string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить абонента
// @Description Удаляет все строки абонента из таблиц политики в одной транзакции.
// @Tags Subscribers
// @Produce  json
// @Param username path string true "Логин абонента"
// @Success 200 {object} response.Response "Абонент удалён"
// @Failure 404 {object} response.ErrorResponse "Абонент не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security ApiKeyAuth
// @Router /subscribers/{username} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.remove"
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

	if err := h.service.Delete(r.Context(), username); err != nil {
		log.Error("failed to delete subscriber", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFrom(err))
		return
	}

	log.Info("subscriber deleted", slog.String("username", username))
	render.JSON(w, r, response.OKWithData(map[string]string{"username": username}))
}
