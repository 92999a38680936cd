package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/njeri2090/studio_booking/configs"
)

// Client talks to the card processor's payment-intent API. Amounts are minor
// currency units throughout.
type Client struct {
	apiBase       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiBase:       cfg.StripeAPIBaseURL,
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// PaymentIntent is the processor-side handle for an in-progress charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	LatestCharge string `json:"latest_charge"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
	Charge string `json:"charge"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent registers a new payment intent with the processor and returns
// its id together with the client secret the frontend completes payment with.
func (c *Client) CreateIntent(amountCents int64, currency, description string, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("description", description)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent PaymentIntent
	if err := c.do("POST", "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) GetIntent(intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := c.do("GET", "/v1/payment_intents/"+intentID, nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CancelIntent voids a still-pending intent on the processor side. Used when a
// duplicate intent request supersedes an earlier one.
func (c *Client) CancelIntent(intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := c.do("POST", "/v1/payment_intents/"+intentID+"/cancel", url.Values{}, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) CreateRefund(chargeID string, amountCents int64) (*Refund, error) {
	form := url.Values{}
	form.Set("charge", chargeID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}

	var refund Refund
	if err := c.do("POST", "/v1/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *Client) do(method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, c.apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("processor error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("processor error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.Unmarshal(respBody, out)
}

// WebhookSecret exposes the shared secret webhook verification runs against.
func (c *Client) WebhookSecret() string {
	return c.webhookSecret
}
