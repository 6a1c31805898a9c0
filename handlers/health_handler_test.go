package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/database"
)

type fakeListenerStatus struct {
	status domain.ListenerStatus
}

func (f *fakeListenerStatus) Status() domain.ListenerStatus { return f.status }

type fakeDispatchStats struct {
	stats domain.DispatchStats
}

func (f *fakeDispatchStats) Stats() domain.DispatchStats { return f.stats }

type fakeStarter struct {
	err   error
	calls int
}

func (f *fakeStarter) EnsureListening(_ context.Context) error {
	f.calls++
	return f.err
}

func TestHealth_ReportsStatusAndComponents(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDB returned error: %v", err)
	}
	defer db.Close()

	e := echo.New()
	reporter := &fakeReporter{status: domain.Status{
		Status:    domain.HealthPendingLogin,
		Connected: true,
		ChannelID: 555,
		AuthState: domain.StateUnauthenticated,
	}}
	handler := NewHealthHandler(
		reporter,
		&fakeListenerStatus{status: domain.ListenerStatus{ChannelID: 555}},
		&fakeDispatchStats{stats: domain.DispatchStats{Delivered: 4}},
		db,
		nil,
	)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := handler.Health(c); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}

	if body["status"] != domain.HealthPendingLogin {
		t.Errorf("expected status pending_login, got %v", body["status"])
	}
	if body["connected"] != true || body["authorized"] != false || body["listening"] != false {
		t.Errorf("unexpected flags in %v", body)
	}
	if body["channelId"] != float64(555) {
		t.Errorf("expected channelId 555, got %v", body["channelId"])
	}
	if _, ok := body["timestamp"]; !ok {
		t.Errorf("expected timestamp")
	}

	components := body["components"].(map[string]any)
	if components["database"].(map[string]any)["status"] != "up" {
		t.Errorf("expected database up, got %v", components["database"])
	}
	if components["redis"].(map[string]any)["status"] != "disabled" {
		t.Errorf("expected redis disabled, got %v", components["redis"])
	}

	deliveries := body["deliveries"].(map[string]any)
	if deliveries["delivered"] != float64(4) {
		t.Errorf("expected 4 deliveries, got %v", deliveries["delivered"])
	}
}

func TestStartListener(t *testing.T) {
	tests := []struct {
		name       string
		listening  bool
		err        error
		wantStatus int
		wantCalls  int
	}{
		{"starts", false, nil, http.StatusOK, 1},
		{"already running", true, nil, http.StatusOK, 0},
		{"not signed in", false, domain.NewError(domain.KindInvalidState, "sign in before starting the listener", nil), http.StatusConflict, 1},
		{"subscribe failed", false, domain.ProviderError(nil), http.StatusBadGateway, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			starter := &fakeStarter{err: tt.err}
			handler := NewListenerHandler(
				context.Background(),
				starter,
				&fakeListenerStatus{status: domain.ListenerStatus{Listening: tt.listening, ChannelID: 555}},
				&fakeDispatchStats{},
			)

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/listener/start", nil), rec)

			if err := handler.StartListener(c); err != nil {
				t.Fatalf("StartListener returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if starter.calls != tt.wantCalls {
				t.Errorf("expected %d EnsureListening calls, got %d", tt.wantCalls, starter.calls)
			}
		})
	}
}

func TestGetListenerStatus(t *testing.T) {
	e := echo.New()
	handler := NewListenerHandler(
		context.Background(),
		&fakeStarter{},
		&fakeListenerStatus{status: domain.ListenerStatus{Listening: true, ChannelID: 555, Received: 9}},
		&fakeDispatchStats{stats: domain.DispatchStats{Failed: 1}},
	)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/listener/status", nil), rec)

	if err := handler.GetListenerStatus(c); err != nil {
		t.Fatalf("GetListenerStatus returned error: %v", err)
	}

	var resp struct {
		Success bool                   `json:"success"`
		Data    listenerStatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if !resp.Success || !resp.Data.Listener.Listening || resp.Data.Listener.Received != 9 || resp.Data.Deliveries.Failed != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}
