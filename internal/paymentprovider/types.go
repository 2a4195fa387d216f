// Package paymentprovider реализует клиента платёжного шлюза Mercado Pago.
package paymentprovider

// PreferenceItem описывает позицию в платёжном предпочтении.
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// BackURLs адреса возврата пользователя после оплаты.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceMetadata произвольные данные, возвращаемые шлюзом вместе с платежом.
type PreferenceMetadata struct {
	UserUID string `json:"user_uid"`
	Plan    string `json:"plan"`
}

// PreferenceRequest тело запроса создания платёжного предпочтения.
type PreferenceRequest struct {
	Items             []PreferenceItem   `json:"items"`
	ExternalReference string             `json:"external_reference"`
	Metadata          PreferenceMetadata `json:"metadata"`
	BackURLs          BackURLs           `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
	NotificationURL   string             `json:"notification_url"`
}

// Preference созданное платёжное предпочтение.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// PaymentMetadata данные, привязанные к платежу при создании предпочтения.
type PaymentMetadata struct {
	UserUID string `json:"user_uid"`
	Plan    string `json:"plan"`
}

// Payment платёж, полученный от шлюза.
type Payment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	Metadata          PaymentMetadata `json:"metadata"`
}
