// Package register реализует HTTP-обработчик регистрации веб-хука.
//
// Регистрация привязывает URL к имени события или подписке "*" и
// сохраняется в файловом реестре.
package register

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/webhooks"
)

// Request описывает JSON-запрос на регистрацию веб-хука.
type Request struct {
	URL   string `json:"url" validate:"required,url"`
	Event string `json:"event" validate:"required"`
}

// Handler управляет HTTP-запросами на регистрацию веб-хуков.
type Handler struct {
	log      *slog.Logger
	registry Registry
	validate *validator.Validate
}

// Registry описывает интерфейс реестра веб-хуков.
type Registry interface {
	Add(url, event string) (webhooks.Registration, error)
}

// New создает новый Handler с переданными логгером и реестром.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать веб-хук
// @Description Привязывает URL к имени события (user.created, user.updated, user.deleted) или "*".
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Param request body Request true "Регистрация"
// @Success 201 {object} response.Response "Созданная регистрация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка записи реестра"
// @Security ApiKeyAuth
// @Router /webhooks [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	registration, err := h.registry.Add(req.URL, req.Event)
	if err != nil {
		log.Error("failed to register webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register webhook"))
		return
	}

	log.Info("webhook registered", slog.String("id", registration.ID), slog.String("event", registration.Event))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(registration))
}
