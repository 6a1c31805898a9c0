package domain

import "time"

// InboundMessageEvent is a provider-pushed channel message, consumed once.
type InboundMessageEvent struct {
	ID        int64
	Text      string
	Date      time.Time
	ChannelID int64
}

// WebhookEnvelope is the JSON body posted to the webhook. Receivers depend on
// these field names and types.
type WebhookEnvelope struct {
	Text      string `json:"text"`
	MessageID int64  `json:"message_id"`
	Date      string `json:"date"`
	ChannelID int64  `json:"channel_id"`
}

// NewWebhookEnvelope builds the envelope for event, stamping the configured
// channel id and an RFC 3339 UTC date.
func NewWebhookEnvelope(event InboundMessageEvent, channelID int64) WebhookEnvelope {
	return WebhookEnvelope{
		Text:      event.Text,
		MessageID: event.ID,
		Date:      event.Date.UTC().Format(time.RFC3339),
		ChannelID: channelID,
	}
}

type DeliveryStatus string

const (
	// DeliveryDelivered means the endpoint answered with a 2xx status.
	DeliveryDelivered DeliveryStatus = "delivered"
	// DeliveryRejected means the endpoint answered with a non-2xx status.
	DeliveryRejected DeliveryStatus = "rejected"
	// DeliveryFailedStatus means no HTTP response was received.
	DeliveryFailedStatus DeliveryStatus = "failed"
)

// Delivery is a row of the delivery log.
type Delivery struct {
	ID         int64          `db:"id" json:"id"`
	DeliveryID string         `db:"delivery_id" json:"deliveryId"`
	ChannelID  int64          `db:"channel_id" json:"channelId"`
	MessageID  int64          `db:"message_id" json:"messageId"`
	Status     DeliveryStatus `db:"status" json:"status"`
	StatusCode int            `db:"status_code" json:"statusCode"`
	LastError  *string        `db:"last_error" json:"lastError,omitempty"`
	Payload    string         `db:"payload" json:"payload"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

type DeliveryStats struct {
	Delivered int64 `db:"delivered" json:"delivered"`
	Rejected  int64 `db:"rejected" json:"rejected"`
	Failed    int64 `db:"failed" json:"failed"`
}

// DeliveryCache is the short-lived record of the latest outcome per message.
type DeliveryCache struct {
	DeliveryID  string         `json:"deliveryId"`
	Status      DeliveryStatus `json:"status"`
	StatusCode  int            `json:"statusCode"`
	DeliveredAt time.Time      `json:"deliveredAt"`
}

// DeliveryOutcome is the result of one webhook POST attempt.
type DeliveryOutcome struct {
	DeliveryID string
	MessageID  int64
	Status     DeliveryStatus
	StatusCode int
	Duration   time.Duration
	At         time.Time
	Err        error
	// Payload is the exact body that was posted; nil when encoding failed.
	Payload []byte
}

// Delivered reports whether the endpoint received the request, whatever it answered.
func (o DeliveryOutcome) Delivered() bool {
	return o.Err == nil
}
