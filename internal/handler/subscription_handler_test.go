package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/subscription"
)

// mockSubscriptionService はSubscriptionServiceInterfaceのモック。
type mockSubscriptionService struct {
	listFn   func(ctx context.Context, filter repository.SubscriptionFilter) (*subscription.ListResult, error)
	updateFn func(ctx context.Context, id string, input subscription.UpdateInput) (*model.Subscription, error)
}

func (m *mockSubscriptionService) List(ctx context.Context, filter repository.SubscriptionFilter) (*subscription.ListResult, error) {
	return m.listFn(ctx, filter)
}

func (m *mockSubscriptionService) Update(ctx context.Context, id string, input subscription.UpdateInput) (*model.Subscription, error) {
	return m.updateFn(ctx, id, input)
}

func subscriptionRouter(h *SubscriptionHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/admin/subscriptions", h.List)
	r.Patch("/api/admin/subscriptions/{id}", h.Update)
	return r
}

func TestSubscriptionHandler_List_IncludesMetricsAndChurnRisk(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionService{
		listFn: func(_ context.Context, filter repository.SubscriptionFilter) (*subscription.ListResult, error) {
			if filter.Status != "active" {
				t.Errorf("filter = %+v", filter)
			}
			return &subscription.ListResult{
				Rows: []subscription.Row{
					{
						Subscription: &model.Subscription{
							ID:           "sub-1",
							MemberID:     "member-1",
							Plan:         "gold",
							PriceCents:   9900,
							BillingCycle: model.BillingCycleMonthly,
							Status:       model.SubscriptionStatusActive,
						},
						ChurnRisk: "low",
					},
				},
				Metrics: subscription.Metrics{
					TotalMRRCents:  9900,
					CountsByStatus: map[string]int{"active": 1},
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?status=active", nil)
	rec := httptest.NewRecorder()
	subscriptionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp subscriptionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(resp.Subscriptions) != 1 || resp.Subscriptions[0].ChurnRisk != "low" {
		t.Errorf("subscriptions = %+v", resp.Subscriptions)
	}
	if resp.Metrics.TotalMRRCents != 9900 {
		t.Errorf("metrics = %+v", resp.Metrics)
	}
}

func TestSubscriptionHandler_Update(t *testing.T) {
	var gotInput subscription.UpdateInput
	h := NewSubscriptionHandler(&mockSubscriptionService{
		updateFn: func(_ context.Context, id string, input subscription.UpdateInput) (*model.Subscription, error) {
			gotInput = input
			return &model.Subscription{
				ID:           id,
				BillingCycle: model.BillingCycleAnnual,
				Status:       model.SubscriptionStatusActive,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/subscriptions/sub-1",
		strings.NewReader(`{"billing_cycle":"Annual"}`))
	rec := httptest.NewRecorder()
	subscriptionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotInput.BillingCycle != "Annual" || gotInput.Status != "" {
		t.Errorf("input = %+v", gotInput)
	}
}

func TestSubscriptionHandler_Update_NotFoundReturns404(t *testing.T) {
	h := NewSubscriptionHandler(&mockSubscriptionService{
		updateFn: func(_ context.Context, id string, _ subscription.UpdateInput) (*model.Subscription, error) {
			return nil, model.NewSubscriptionNotFoundError(id)
		},
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/subscriptions/sub-x",
		strings.NewReader(`{"status":"canceled"}`))
	rec := httptest.NewRecorder()
	subscriptionRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
