// Package stripe charges course purchases through the Stripe API using
// direct HTTP calls, keeping the dependency surface to the standard client.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mohmk10/sencours-back-sub000/internal/payments"
)

const defaultAPIBase = "https://api.stripe.com"

// Provider implements payments.Provider against Stripe PaymentIntents.
type Provider struct {
	secretKey  string
	currency   string
	httpClient *http.Client
	apiBaseURL string
}

func NewProvider(secretKey, currency string) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if !strings.HasPrefix(key, "sk_") && !strings.HasPrefix(key, "rk_") {
		return nil, errors.New("stripe secret key must start with sk_ or rk_")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "xof"
	}

	return &Provider{
		secretKey:  key,
		currency:   currency,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: defaultAPIBase,
	}, nil
}

// Charge creates and immediately confirms a payment intent for the course
// purchase. The returned reference is the intent id.
func (p *Provider) Charge(ctx context.Context, params payments.ChargeParams) (*payments.Receipt, error) {
	if p == nil {
		return nil, errors.New("stripe provider is not configured")
	}
	if params.AmountCents <= 0 {
		return nil, payments.ErrInvalidAmount
	}

	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = p.currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.AmountCents, 10))
	form.Set("currency", currency)
	form.Set("confirm", "true")
	form.Set("metadata[user_id]", strconv.FormatUint(uint64(params.UserID), 10))
	form.Set("metadata[course_id]", strconv.FormatUint(uint64(params.CourseID), 10))
	if desc := strings.TrimSpace(params.Description); desc != "" {
		form.Set("description", desc)
	}

	endpoint := fmt.Sprintf("%s/v1/payment_intents", strings.TrimRight(p.apiBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("stripe response decode failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		message := strings.TrimSpace(payload.Error.Message)
		if message == "" {
			message = fmt.Sprintf("stripe returned status %d", resp.StatusCode)
		}
		return nil, errors.New(message)
	}
	if payload.ID == "" {
		return nil, errors.New("stripe response missing payment intent id")
	}
	if payload.Status != "succeeded" {
		return nil, fmt.Errorf("payment not completed, status %q", payload.Status)
	}

	return &payments.Receipt{
		Reference:   payload.ID,
		AmountCents: params.AmountCents,
		Currency:    currency,
	}, nil
}
