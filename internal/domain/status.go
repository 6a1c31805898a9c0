package domain

import "time"

// AuthState is the position of the login flow.
type AuthState string

const (
	StateUnauthenticated  AuthState = "unauthenticated"
	StateCodeRequested    AuthState = "code_requested"
	StatePasswordRequired AuthState = "password_required"
	StateAuthorized       AuthState = "authorized"
)

const (
	HealthOK           = "ok"
	HealthPendingLogin = "pending_login"
	HealthNotListening = "not_listening"
	HealthDisconnected = "disconnected"
	HealthError        = "error"
)

// Status is a point-in-time snapshot of the relay.
type Status struct {
	Status            string    `json:"status"`
	Connected         bool      `json:"connected"`
	Authorized        bool      `json:"authorized"`
	Listening         bool      `json:"listening"`
	ChannelID         int64     `json:"channelId"`
	WebhookConfigured bool      `json:"webhookConfigured"`
	AuthState         AuthState `json:"authState"`
	Error             string    `json:"error,omitempty"`
}

// ListenerStatus describes the channel subscription.
type ListenerStatus struct {
	Listening bool      `json:"listening"`
	ChannelID int64     `json:"channelId"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	Restarts  int64     `json:"restarts"`
	Received  int64     `json:"received"`
	LastError string    `json:"lastError,omitempty"`
}

// DispatchStats are the in-process delivery counters since start.
type DispatchStats struct {
	Delivered           int64     `json:"delivered"`
	Rejected            int64     `json:"rejected"`
	Failed              int64     `json:"failed"`
	Duplicates          int64     `json:"duplicates"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastDeliveryAt      time.Time `json:"lastDeliveryAt,omitempty"`
	LastAlertSentAt     time.Time `json:"lastAlertSentAt,omitempty"`
}
