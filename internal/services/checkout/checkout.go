// Package checkout содержит логику создания платёжных предпочтений
// для оформления подписки через платёжный шлюз.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/resumia/resumia-backend/internal/models"
	"github.com/resumia/resumia-backend/internal/paymentprovider"
)

// ErrUnknownPlan запрошен несуществующий тариф.
var ErrUnknownPlan = errors.New("unknown plan")

// planPrices цены тарифов в солях (PEN).
var planPrices = map[string]float64{
	models.PlanMonthly: 9.99,
	models.PlanAnnual:  99.99,
}

// planTitles названия тарифов для платёжного шлюза.
var planTitles = map[string]string{
	models.PlanMonthly: "Suscripción Mensual ResumIA",
	models.PlanAnnual:  "Suscripción Anual ResumIA",
}

// GatewayClient описывает контракт клиента платёжного шлюза.
type GatewayClient interface {
	CreatePreference(ctx context.Context, req paymentprovider.PreferenceRequest) (*paymentprovider.Preference, error)
}

// CheckoutService отвечает за создание платёжных предпочтений.
type CheckoutService struct {
	gateway GatewayClient
	baseURL string
}

// NewCheckoutService создает новый экземпляр CheckoutService.
func NewCheckoutService(gateway GatewayClient, baseURL string) *CheckoutService {
	return &CheckoutService{
		gateway: gateway,
		baseURL: baseURL,
	}
}

// CreatePayment создает платёжное предпочтение для выбранного тарифа.
// UID пользователя записывается во внешнюю ссылку и метаданные платежа,
// чтобы затем сверить оплату с владельцем.
func (s *CheckoutService) CreatePayment(ctx context.Context, userUID, plan string) (*paymentprovider.Preference, error) {
	price, ok := planPrices[plan]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}

	req := paymentprovider.PreferenceRequest{
		Items: []paymentprovider.PreferenceItem{
			{
				Title:      planTitles[plan],
				Quantity:   1,
				UnitPrice:  price,
				CurrencyID: "PEN",
			},
		},
		ExternalReference: userUID,
		Metadata: paymentprovider.PreferenceMetadata{
			UserUID: userUID,
			Plan:    plan,
		},
		BackURLs: paymentprovider.BackURLs{
			Success: s.baseURL + "/dashboard?success=true",
			Failure: s.baseURL + "/pricing?error=payment_failed",
			Pending: s.baseURL + "/dashboard?status=pending",
		},
		AutoReturn:      "approved",
		NotificationURL: s.baseURL + "/api/webhooks/mercadopago",
	}

	return s.gateway.CreatePreference(ctx, req)
}
