package create

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/apperr"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.CreateSubscriberRequest) (*models.Subscriber, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscriber), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{"username":"alice","password":"s3cret","bandwidth_up":"50M","bandwidth_down":"20M","plan":"pool1"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное создание абонента",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, models.CreateSubscriberRequest{
					Username: "alice",
					Password: "s3cret",
					Upload:   "50M",
					Download: "20M",
					Plan:     "pool1",
				}).Return(&models.Subscriber{
					Username: "alice",
					Secret:   "s3cret",
					Upload:   "50M",
					Download: "20M",
					Plan:     "pool1",
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"username":"alice"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"username":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "отсутствуют обязательные поля",
			body:           `{"username":"alice"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `required field`,
		},
		{
			name: "конфликт при повторном создании",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, apperr.Conflict("subscriber already exists"))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `subscriber already exists`,
		},
		{
			name: "ошибка хранилища",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, apperr.Store("failed to commit", nil))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `internal error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscribers", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
