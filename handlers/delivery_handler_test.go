package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/dispatcher"
	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/response"
)

type fakeDeliveryService struct {
	deliveries []domain.Delivery
	total      int64
	err        error

	gotStatus   *domain.DeliveryStatus
	gotPage     int
	gotPageSize int
	replayed    []int64
}

func (f *fakeDeliveryService) GetDeliveries(_ context.Context, status *domain.DeliveryStatus, page, pageSize int) ([]domain.Delivery, int64, error) {
	f.gotStatus = status
	f.gotPage = page
	f.gotPageSize = pageSize
	return f.deliveries, f.total, f.err
}

func (f *fakeDeliveryService) GetStats(_ context.Context) (domain.DeliveryStats, error) {
	return domain.DeliveryStats{Delivered: 3, Rejected: 1, Failed: 2}, f.err
}

func (f *fakeDeliveryService) GetCachedDeliveries(_ context.Context) (map[int64]*domain.DeliveryCache, error) {
	return map[int64]*domain.DeliveryCache{42: {DeliveryID: "d-1", Status: domain.DeliveryDelivered}}, f.err
}

func (f *fakeDeliveryService) Replay(_ context.Context, id int64) (*domain.Delivery, error) {
	f.replayed = append(f.replayed, id)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Delivery{ID: id, Status: domain.DeliveryDelivered, StatusCode: 200}, nil
}

func TestGetDeliveries_PaginationAndFilter(t *testing.T) {
	e := echo.New()
	service := &fakeDeliveryService{
		deliveries: []domain.Delivery{{ID: 1, Status: domain.DeliveryFailedStatus}},
		total:      21,
	}
	handler := NewDeliveryHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deliveries?page=2&pageSize=10&status=failed", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetDeliveries(c); err != nil {
		t.Fatalf("GetDeliveries returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp response.PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Page != 2 || resp.PageSize != 10 || resp.TotalCount != 21 || resp.TotalPages != 3 {
		t.Errorf("unexpected pagination %+v", resp)
	}
	if service.gotStatus == nil || *service.gotStatus != domain.DeliveryFailedStatus {
		t.Errorf("expected failed status filter, got %v", service.gotStatus)
	}
	if service.gotPage != 2 || service.gotPageSize != 10 {
		t.Errorf("expected page 2 size 10, got %d/%d", service.gotPage, service.gotPageSize)
	}
}

func TestGetDeliveries_BadParams(t *testing.T) {
	tests := []string{
		"/api/v1/deliveries?page=0",
		"/api/v1/deliveries?page=abc",
		"/api/v1/deliveries?pageSize=101",
		"/api/v1/deliveries?status=queued",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			e := echo.New()
			handler := NewDeliveryHandler(&fakeDeliveryService{})

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)

			if err := handler.GetDeliveries(c); err != nil {
				t.Fatalf("GetDeliveries returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestGetStats_IncludesTotal(t *testing.T) {
	e := echo.New()
	handler := NewDeliveryHandler(&fakeDeliveryService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/deliveries/stats", nil), rec)

	if err := handler.GetStats(c); err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}

	var resp struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Data["total"] != 6 || resp.Data["failed"] != 2 {
		t.Errorf("unexpected stats %v", resp.Data)
	}
}

func TestReplayDelivery(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{"replayed", "7", nil, http.StatusOK},
		{"invalid id", "abc", nil, http.StatusBadRequest},
		{"not found", "7", fmt.Errorf("%w: 7", dispatcher.ErrDeliveryNotFound), http.StatusNotFound},
		{"already delivered", "7", dispatcher.ErrNotReplayable, http.StatusBadRequest},
		{"no delivery log", "7", dispatcher.ErrLogNotConfigured, http.StatusServiceUnavailable},
		{"database error", "7", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			service := &fakeDeliveryService{err: tt.err}
			handler := NewDeliveryHandler(service)

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			c.SetPath("/api/v1/deliveries/:id/replay")
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			if err := handler.ReplayDelivery(c); err != nil {
				t.Fatalf("ReplayDelivery returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.id == "abc" && len(service.replayed) != 0 {
				t.Errorf("expected no replay for an invalid id")
			}
		})
	}
}

func TestGetCachedDeliveries_NoRedis(t *testing.T) {
	e := echo.New()
	handler := NewDeliveryHandler(&fakeDeliveryService{err: dispatcher.ErrCacheNotAvailable})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/deliveries/cached", nil), rec)

	if err := handler.GetCachedDeliveries(c); err != nil {
		t.Fatalf("GetCachedDeliveries returned error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}
