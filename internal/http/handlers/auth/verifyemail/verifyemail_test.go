package verifyemail

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authservice "github.com/resumia/resumia-backend/internal/services/auth"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyEmail(ctx context.Context, verificationToken string) error {
	args := m.Called(ctx, verificationToken)
	return args.Error(0)
}

func TestVerifyEmailHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	const baseURL = "https://resumia.example.com"

	cases := []struct {
		name             string
		token            string
		mockSetup        func(m *MockService)
		expectedLocation string
	}{
		{
			name:  "Успешное подтверждение",
			token: "validtoken",
			mockSetup: func(m *MockService) {
				m.On("VerifyEmail", mock.Anything, "validtoken").Return(nil)
			},
			expectedLocation: baseURL + "/login?success=email_verified",
		},
		{
			name:  "Недействительный токен",
			token: "badtoken",
			mockSetup: func(m *MockService) {
				m.On("VerifyEmail", mock.Anything, "badtoken").
					Return(authservice.ErrInvalidVerificationToken)
			},
			expectedLocation: baseURL + "/login?error=invalid_token",
		},
		{
			name:  "Внутренняя ошибка",
			token: "sometoken",
			mockSetup: func(m *MockService) {
				m.On("VerifyEmail", mock.Anything, "sometoken").Return(assert.AnError)
			},
			expectedLocation: baseURL + "/login?error=server_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockService)
			tc.mockSetup(mockService)

			handler := New(logger, mockService, baseURL)

			router := chi.NewRouter()
			router.Get("/api/verify-email/{token}", handler.ServeHTTP)

			req := httptest.NewRequest(http.MethodGet, "/api/verify-email/"+tc.token, nil)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusFound, rr.Code)
			assert.Equal(t, tc.expectedLocation, rr.Header().Get("Location"))
			mockService.AssertExpectations(t)
		})
	}
}
