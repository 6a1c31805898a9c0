package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/telegram-webhook-relay/environments"
)

// DeliveryIDHeader carries the relay's id for one delivery attempt.
const DeliveryIDHeader = "X-Relay-Delivery-ID"

type Client struct {
	httpClient *resty.Client
	webhookURL string
}

// Result is what the endpoint answered. Any status code is a result; only
// transport failures are errors.
type Result struct {
	StatusCode int
	Body       string
	Duration   time.Duration
}

// Success reports a 2xx answer.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func NewWebhookClient(cfg environments.WebhookConfig) *Client {
	client := newRestyClient(cfg.Timeout)

	if cfg.HasBasicAuth() {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &Client{
		httpClient: client,
		webhookURL: cfg.URL,
	}
}

// NewAlertClient posts operator alerts. Alerts never carry the webhook's credentials.
func NewAlertClient(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: newRestyClient(timeout),
		webhookURL: url,
	}
}

func newRestyClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// Send issues exactly one POST of payload encoded as JSON.
func (c *Client) Send(ctx context.Context, deliveryID string, payload any) (*Result, error) {
	startTime := time.Now()

	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload)
	if deliveryID != "" {
		req.SetHeader(DeliveryIDHeader, deliveryID)
	}

	resp, err := req.Post(c.webhookURL)

	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", c.webhookURL, err)
	}

	return &Result{
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
		Duration:   duration,
	}, nil
}

func (c *Client) GetURL() string {
	return c.webhookURL
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.webhookURL != ""
}
