package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
)

type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) CreatePreference(ctx context.Context, req paymentprovider.PreferenceRequest) (*paymentprovider.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Preference), args.Error(1)
}

func TestCreatePayment(t *testing.T) {
	cases := []struct {
		name      string
		plan      string
		mockSetup func(gateway *MockGatewayClient)
		wantErr   error
	}{
		{
			name: "Месячный тариф",
			plan: models.PlanMonthly,
			mockSetup: func(gateway *MockGatewayClient) {
				gateway.On("CreatePreference", mock.Anything,
					mock.MatchedBy(func(req paymentprovider.PreferenceRequest) bool {
						return req.ExternalReference == "user-uid-1" &&
							req.Metadata.Plan == models.PlanMonthly &&
							len(req.Items) == 1 &&
							req.Items[0].UnitPrice == 9.99 &&
							req.Items[0].CurrencyID == "PEN" &&
							req.AutoReturn == "approved" &&
							req.BackURLs.Success == "https://resumia.example.com/dashboard?success=true" &&
							req.NotificationURL == "https://resumia.example.com/api/webhooks/mercadopago"
					})).
					Return(&paymentprovider.Preference{
						ID:        "pref-123",
						InitPoint: "https://www.mercadopago.com/init/pref-123",
					}, nil)
			},
		},
		{
			name: "Годовой тариф",
			plan: models.PlanAnnual,
			mockSetup: func(gateway *MockGatewayClient) {
				gateway.On("CreatePreference", mock.Anything,
					mock.MatchedBy(func(req paymentprovider.PreferenceRequest) bool {
						return req.Items[0].UnitPrice == 99.99 &&
							req.Metadata.Plan == models.PlanAnnual
					})).
					Return(&paymentprovider.Preference{ID: "pref-456", InitPoint: "https://init"}, nil)
			},
		},
		{
			name:      "Неизвестный тариф",
			plan:      "weekly",
			mockSetup: func(_ *MockGatewayClient) {},
			wantErr:   ErrUnknownPlan,
		},
		{
			name:      "Бесплатный тариф не оплачивается",
			plan:      models.PlanFree,
			mockSetup: func(_ *MockGatewayClient) {},
			wantErr:   ErrUnknownPlan,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := new(MockGatewayClient)
			tc.mockSetup(gateway)

			service := NewCheckoutService(gateway, "https://resumia.example.com")
			pref, err := service.CreatePayment(context.Background(), "user-uid-1", tc.plan)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pref.ID)
			assert.NotEmpty(t, pref.InitPoint)
			gateway.AssertExpectations(t)
		})
	}
}
