package login

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/models"
	authservice "github.com/resumia/resumia-backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	args := m.Called(ctx, email, rawPassword)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	user := &models.User{
		UID:        "user-uid-1",
		Email:      "maria@example.com",
		Name:       "Maria",
		IsVerified: true,
		Subscription: models.Subscription{
			Status: models.SubscriptionStatusFree,
			Plan:   models.PlanFree,
		},
	}

	cases := []struct {
		name           string
		body           string
		mockSetup      func(m *MockService)
		expectedStatus int
		expectedBody   string
		expectCookie   bool
	}{
		{
			name: "Успешный вход",
			body: `{"email":"maria@example.com","password":"secret123"}`,
			mockSetup: func(m *MockService) {
				m.On("Login", mock.Anything, "maria@example.com", "secret123").
					Return("jwt-token", user, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "maria@example.com",
			expectCookie:   true,
		},
		{
			name: "Неверные учетные данные",
			body: `{"email":"maria@example.com","password":"wrong"}`,
			mockSetup: func(m *MockService) {
				m.On("Login", mock.Anything, "maria@example.com", "wrong").
					Return("", nil, authservice.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid email or password",
		},
		{
			name: "Почта не подтверждена",
			body: `{"email":"maria@example.com","password":"secret123"}`,
			mockSetup: func(m *MockService) {
				m.On("Login", mock.Anything, "maria@example.com", "secret123").
					Return("", nil, authservice.ErrEmailNotVerified)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "email not verified",
		},
		{
			name:           "Пустой пароль",
			body:           `{"email":"maria@example.com","password":""}`,
			mockSetup:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Password is a required field",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockService)
			tc.mockSetup(mockService)

			handler := New(logger, mockService, 24*time.Hour)
			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.expectedBody)

			cookies := rr.Result().Cookies()
			if tc.expectCookie {
				require.Len(t, cookies, 1)
				cookie := cookies[0]
				assert.Equal(t, middlewarectx.SessionCookieName, cookie.Name)
				assert.Equal(t, "jwt-token", cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
				assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)
			} else {
				assert.Empty(t, cookies)
			}
			mockService.AssertExpectations(t)
		})
	}
}
