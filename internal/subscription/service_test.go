package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

type mockSubRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Subscription, error)
	listFn              func(ctx context.Context, filter repository.SubscriptionFilter) ([]*model.Subscription, error)
	updateAdminFieldsFn func(ctx context.Context, id string, billingCycle model.BillingCycle, status model.SubscriptionStatus) error
}

func (m *mockSubRepo) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSubRepo) FindByMemberID(_ context.Context, _ string) (*model.Subscription, error) {
	return nil, nil
}

func (m *mockSubRepo) Create(_ context.Context, _ *model.Subscription) error { return nil }

func (m *mockSubRepo) List(ctx context.Context, filter repository.SubscriptionFilter) ([]*model.Subscription, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockSubRepo) HasActiveLikeByEmail(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockSubRepo) UpdateAdminFields(ctx context.Context, id string, billingCycle model.BillingCycle, status model.SubscriptionStatus) error {
	if m.updateAdminFieldsFn != nil {
		return m.updateAdminFieldsFn(ctx, id, billingCycle, status)
	}
	return nil
}

func (m *mockSubRepo) UpdateProviderState(_ context.Context, _ string, _ model.SubscriptionStatus, _, _ time.Time) error {
	return nil
}

func (m *mockSubRepo) ListStale(_ context.Context, _ time.Duration, _ int) ([]*model.Subscription, error) {
	return nil, nil
}

// --- List ---

// 集計指標（合計MRR・状態別件数・チャーンリスク）が導出されること
func TestList_DerivedMetrics(t *testing.T) {
	now := time.Now()
	repo := &mockSubRepo{
		listFn: func(_ context.Context, _ repository.SubscriptionFilter) ([]*model.Subscription, error) {
			return []*model.Subscription{
				{
					ID: "sub-1", Status: model.SubscriptionStatusActive,
					BillingCycle: model.BillingCycleMonthly, PriceCents: 9900,
					CurrentPeriodEnd: now.Add(60 * 24 * time.Hour),
				},
				{
					ID: "sub-2", Status: model.SubscriptionStatusActive,
					BillingCycle: model.BillingCycleAnnual, PriceCents: 120000,
					CurrentPeriodEnd: now.Add(7 * 24 * time.Hour),
				},
				{
					ID: "sub-3", Status: model.SubscriptionStatusCanceled,
					BillingCycle: model.BillingCycleMonthly, PriceCents: 9900,
				},
			}, nil
		},
	}

	svc := NewService(repo)
	result, err := svc.List(context.Background(), repository.SubscriptionFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// 9900 + 120000/12 + 0
	if result.Metrics.TotalMRRCents != 19900 {
		t.Errorf("TotalMRRCents = %d, want 19900", result.Metrics.TotalMRRCents)
	}
	if result.Metrics.CountsByStatus["active"] != 2 || result.Metrics.CountsByStatus["canceled"] != 1 {
		t.Errorf("CountsByStatus = %v", result.Metrics.CountsByStatus)
	}
	if result.Rows[0].ChurnRisk != "low" {
		t.Errorf("sub-1 ChurnRisk = %q", result.Rows[0].ChurnRisk)
	}
	if result.Rows[1].ChurnRisk != "medium" {
		t.Errorf("sub-2 ChurnRisk = %q", result.Rows[1].ChurnRisk)
	}
	if result.Rows[2].ChurnRisk != "churned" {
		t.Errorf("sub-3 ChurnRisk = %q", result.Rows[2].ChurnRisk)
	}
}

// --- Update ---

func TestUpdate_PartialFields(t *testing.T) {
	var gotCycle model.BillingCycle
	var gotStatus model.SubscriptionStatus

	repo := &mockSubRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Subscription, error) {
			return &model.Subscription{
				ID: id, BillingCycle: model.BillingCycleMonthly,
				Status: model.SubscriptionStatusActive,
			}, nil
		},
		updateAdminFieldsFn: func(_ context.Context, _ string, billingCycle model.BillingCycle, status model.SubscriptionStatus) error {
			gotCycle = billingCycle
			gotStatus = status
			return nil
		},
	}

	svc := NewService(repo)
	if _, err := svc.Update(context.Background(), "sub-1", UpdateInput{BillingCycle: "Annual"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gotCycle != model.BillingCycleAnnual {
		t.Errorf("billingCycle = %s", gotCycle)
	}
	if gotStatus != model.SubscriptionStatusActive {
		t.Errorf("status should be unchanged, got %s", gotStatus)
	}
}

func TestUpdate_InvalidValues(t *testing.T) {
	repo := &mockSubRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Subscription, error) {
			return &model.Subscription{ID: id}, nil
		},
	}

	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "sub-1", UpdateInput{
		BillingCycle: "Weekly",
		Status:       "paused",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
	if len(apiErr.Details) != 2 {
		t.Errorf("Details = %v", apiErr.Details)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(&mockSubRepo{})

	_, err := svc.Update(context.Background(), "sub-unknown", UpdateInput{Status: "canceled"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSubscriptionNotFound {
		t.Fatalf("error = %v, want subscription not found", err)
	}
}
