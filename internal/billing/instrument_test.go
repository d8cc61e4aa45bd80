package billing

import (
	"context"
	"errors"
	"testing"
)

type mockGatewayRecorder struct {
	checkouts []string
	errs      []string
}

func (m *mockGatewayRecorder) RecordCheckoutSessionCreated(plan string) {
	m.checkouts = append(m.checkouts, plan)
}

func (m *mockGatewayRecorder) RecordProviderError(provider, step string) {
	m.errs = append(m.errs, provider+"/"+step)
}

func TestInstrumentedGateway_CreateCheckoutSession(t *testing.T) {
	rec := &mockGatewayRecorder{}
	g := NewInstrumentedGateway(&mockGateway{
		createCheckoutSessionFn: func(_ context.Context, _ CheckoutParams) (string, error) {
			return "https://checkout.stripe.com/c/pay_123", nil
		},
	}, rec)

	url, err := g.CreateCheckoutSession(context.Background(), CheckoutParams{
		CustomerID: "cus_123",
		PriceID:    "price_123",
		Metadata:   map[string]string{"plan": "founding-member"},
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}
	if url != "https://checkout.stripe.com/c/pay_123" {
		t.Errorf("url = %q", url)
	}
	if len(rec.checkouts) != 1 || rec.checkouts[0] != "founding-member" {
		t.Errorf("checkouts = %v", rec.checkouts)
	}
}

// プランメタデータが無い場合は "unknown" ラベルで記録すること
func TestInstrumentedGateway_CreateCheckoutSession_MissingPlan(t *testing.T) {
	rec := &mockGatewayRecorder{}
	g := NewInstrumentedGateway(&mockGateway{
		createCheckoutSessionFn: func(_ context.Context, _ CheckoutParams) (string, error) {
			return "https://checkout.stripe.com/c/pay_456", nil
		},
	}, rec)

	if _, err := g.CreateCheckoutSession(context.Background(), CheckoutParams{}); err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}
	if len(rec.checkouts) != 1 || rec.checkouts[0] != "unknown" {
		t.Errorf("checkouts = %v", rec.checkouts)
	}
}

func TestInstrumentedGateway_CreateCheckoutSession_Failure(t *testing.T) {
	rec := &mockGatewayRecorder{}
	g := NewInstrumentedGateway(&mockGateway{
		createCheckoutSessionFn: func(_ context.Context, _ CheckoutParams) (string, error) {
			return "", errors.New("stripe unavailable")
		},
	}, rec)

	if _, err := g.CreateCheckoutSession(context.Background(), CheckoutParams{}); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.checkouts) != 0 {
		t.Errorf("checkouts = %v, want empty", rec.checkouts)
	}
	if len(rec.errs) != 1 || rec.errs[0] != "stripe/checkout_session_create" {
		t.Errorf("errs = %v", rec.errs)
	}
}

func TestInstrumentedGateway_RecordsProviderErrors(t *testing.T) {
	rec := &mockGatewayRecorder{}
	g := NewInstrumentedGateway(&mockGateway{
		findCustomerByEmailFn: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("boom")
		},
		createCustomerFn: func(_ context.Context, _, _ string) (string, error) {
			return "", errors.New("boom")
		},
		getCheckoutSessionEmailFn: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("boom")
		},
		getCheckoutSessionDetailsFn: func(_ context.Context, _ string) (*CheckoutSessionDetails, error) {
			return nil, errors.New("boom")
		},
		getSubscriptionFn: func(_ context.Context, _ string) (*ProviderSubscription, error) {
			return nil, errors.New("boom")
		},
	}, rec)

	ctx := context.Background()
	_, _ = g.FindCustomerByEmail(ctx, "owner@example.com")
	_, _ = g.CreateCustomer(ctx, "owner@example.com", "Owner")
	_, _ = g.GetCheckoutSessionEmail(ctx, "cs_123")
	_, _ = g.GetCheckoutSessionDetails(ctx, "cs_123")
	_, _ = g.GetSubscription(ctx, "sub_123")

	want := []string{
		"stripe/customer_find",
		"stripe/customer_create",
		"stripe/checkout_session_get",
		"stripe/checkout_session_get",
		"stripe/subscription_get",
	}
	if len(rec.errs) != len(want) {
		t.Fatalf("errs = %v", rec.errs)
	}
	for i, w := range want {
		if rec.errs[i] != w {
			t.Errorf("errs[%d] = %q, want %q", i, rec.errs[i], w)
		}
	}
}

// 成功時はエラーメトリクスを記録せず、値をそのまま返すこと
func TestInstrumentedGateway_PassesThroughOnSuccess(t *testing.T) {
	rec := &mockGatewayRecorder{}
	g := NewInstrumentedGateway(&mockGateway{
		findCustomerByEmailFn: func(_ context.Context, email string) (string, error) {
			if email != "owner@example.com" {
				t.Errorf("email = %q", email)
			}
			return "cus_789", nil
		},
	}, rec)

	id, err := g.FindCustomerByEmail(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("FindCustomerByEmail() error = %v", err)
	}
	if id != "cus_789" {
		t.Errorf("id = %q", id)
	}
	if len(rec.errs) != 0 {
		t.Errorf("errs = %v, want empty", rec.errs)
	}
}
