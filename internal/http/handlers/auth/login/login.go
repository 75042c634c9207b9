// Package login реализует HTTP-обработчик обмена API-ключа на bearer-токен.
//
// Панель использует один статический ключ: обработчик сверяет присланный
// ключ за постоянное время и возвращает его же в качестве токена для
// заголовка Authorization.
package login

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
)

// Request описывает JSON-запрос на вход.
type Request struct {
	APIKey string `json:"api_key" validate:"required"`
}

// Handler управляет HTTP-запросами на вход.
type Handler struct {
	log      *slog.Logger
	apiKey   string
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и API-ключом.
func New(log *slog.Logger, apiKey string) *Handler {
	return &Handler{
		log:      log,
		apiKey:   apiKey,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Войти
// @Description Сверяет API-ключ и возвращает bearer-токен для остальных операций.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "API-ключ"
// @Success 200 {object} response.Response "Токен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный ключ"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
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

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		log.Error("invalid api key")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid api key"))
		return
	}

	log.Info("login succeeded")
	render.JSON(w, r, response.OKWithData(map[string]string{"token": h.apiKey}))
}
