// Package middlewarectx содержит HTTP middleware административного API:
// проверку статического API-ключа в заголовке Authorization и ограничение
// частоты запросов.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/http/response"
)

// APIKeyMiddleware возвращает HTTP middleware, который сверяет bearer-токен
// заголовка Authorization со статическим API-ключом из конфига. Сравнение
// выполняется за постоянное время.
func APIKeyMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.APIKeyMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				log.Error("invalid api key")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid api key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
