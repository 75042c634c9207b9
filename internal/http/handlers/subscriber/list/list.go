// Package list реализует HTTP-обработчик постраничного списка абонентов.
//
// Поддерживает необязательный поиск по подстроке логина и параметры
// пагинации page/limit.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// Handler управляет HTTP-запросами на список абонентов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка абонентов.
type Service interface {
	List(ctx context.Context, search string, page, limit int) ([]models.Subscriber, models.Pagination, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список абонентов
// @Description Возвращает страницу абонентов с декодированной полосой и необязательным поиском по логину.
// @Tags Subscribers
// @Produce  json
// @Param search query string false "Подстрока логина"
// @Param page query int false "Номер страницы (с 1)"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Success 200 {object} response.Response "Страница абонентов"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security ApiKeyAuth
// @Router /subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	search := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	subscribers, pagination, err := h.service.List(r.Context(), search, page, limit)
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFrom(err))
		return
	}

	log.Info("subscribers listed", slog.Int("count", len(subscribers)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscribers": subscribers,
		"pagination":  pagination,
	}))
}
