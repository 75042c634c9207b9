package read

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/apperr"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, username string) (*models.Subscriber, error) {
	args := m.Called(ctx, username)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscriber), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешное чтение абонента",
			username: "alice",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "alice").Return(&models.Subscriber{
					Username: "alice",
					Secret:   "s3cret",
					Upload:   "50M",
					Download: "20M",
					Plan:     "pool1",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"bandwidth_up":"50M"`,
		},
		{
			name:     "абонент не найден",
			username: "ghost",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "ghost").
					Return(nil, apperr.NotFound("subscriber not found"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `subscriber not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/subscribers/"+tt.username, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("username", tt.username)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
