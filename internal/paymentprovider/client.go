package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrPaymentNotFound платёж с таким идентификатором не найден у шлюза.
var ErrPaymentNotFound = errors.New("payment not found")

// Client клиент HTTP API платёжного шлюза.
type Client struct {
	httpClient  *http.Client
	accessToken string
	apiURL      string
}

// NewClient создает новый экземпляр Client.
func NewClient(accessToken, apiURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		accessToken: accessToken,
		apiURL:      apiURL,
	}
}

// CreatePreference создает платёжное предпочтение и возвращает ссылку на оплату.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	const op = "paymentprovider.CreatePreference"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, data)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &pref, nil
}

// GetPayment возвращает платёж по его идентификатору.
func (c *Client) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	const op = "paymentprovider.GetPayment"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/v1/payments/"+strconv.FormatInt(paymentID, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, data)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment, nil
}
