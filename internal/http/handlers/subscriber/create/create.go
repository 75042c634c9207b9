// Package create реализует HTTP-обработчик создания абонента RADIUS.
//
// Handler принимает JSON-запрос с данными абонента, валидирует их,
// вызывает бизнес-логику создания через сервис и возвращает каноническое
// описание созданного абонента в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// Handler управляет HTTP-запросами на создание абонентов.
//
// Использует логгер для записи операций и ошибок,
// сервис бизнес-логики для создания абонента,
// а также валидатор для проверки структуры входных данных.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания абонента.
type Service interface {
	Create(ctx context.Context, req models.CreateSubscriberRequest) (*models.Subscriber, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать абонента
// @Description Создает абонента: check-строку с секретом и reply-строки полосы по активному профилю NAS.
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param request body models.CreateSubscriberRequest true "Данные нового абонента"
// @Success 201 {object} response.Response "Созданный абонент"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Абонент уже существует"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security ApiKeyAuth
// @Router /subscribers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriber.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateSubscriberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	subscriber, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create subscriber", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFrom(err))
		return
	}

	log.Info("subscriber created", slog.String("username", subscriber.Username))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(subscriber))
}
