package paymentmanual

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/resumia/resumia-backend/internal/http/middlewarectx"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
	"github.com/resumia/resumia-backend/internal/services/reconciler"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Reconcile(ctx context.Context, userUID string, paymentID int64) (*reconciler.Outcome, error) {
	args := m.Called(ctx, userUID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.Outcome), args.Error(1)
}

func TestPaymentManualHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cases := []struct {
		name           string
		userUID        string
		body           string
		mockSetup      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "Успешная сверка платежа",
			userUID: "user-uid-1",
			body:    `{"paymentId":"555"}`,
			mockSetup: func(m *MockService) {
				m.On("Reconcile", mock.Anything, "user-uid-1", int64(555)).
					Return(&reconciler.Outcome{
						PaymentStatus:      "approved",
						SubscriptionStatus: "active",
						Changed:            true,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_status":"active"`,
		},
		{
			name:    "Платёж другого пользователя",
			userUID: "user-uid-1",
			body:    `{"paymentId":"555"}`,
			mockSetup: func(m *MockService) {
				m.On("Reconcile", mock.Anything, "user-uid-1", int64(555)).
					Return(nil, reconciler.ErrPaymentMismatch)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   "payment does not belong to user",
		},
		{
			name:    "Платёж ещё не виден шлюзу",
			userUID: "user-uid-1",
			body:    `{"paymentId":"999"}`,
			mockSetup: func(m *MockService) {
				m.On("Reconcile", mock.Anything, "user-uid-1", int64(999)).
					Return(nil, paymentprovider.ErrPaymentNotFound)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"message":"payment not found"`,
		},
		{
			name:           "Нет UID в контексте",
			userUID:        "",
			body:           `{"paymentId":"555"}`,
			mockSetup:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "authentication required",
		},
		{
			name:           "Нечисловой идентификатор платежа",
			userUID:        "user-uid-1",
			body:           `{"paymentId":"abc"}`,
			mockSetup:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field PaymentID can contain only numbers",
		},
		{
			name:           "Пустое тело запроса",
			userUID:        "user-uid-1",
			body:           `{}`,
			mockSetup:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field PaymentID is a required field",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockService)
			tc.mockSetup(mockService)

			handler := New(logger, mockService)
			req := httptest.NewRequest(http.MethodPost, "/api/update-subscription-manual", bytes.NewBufferString(tc.body))
			if tc.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tc.userUID)
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
