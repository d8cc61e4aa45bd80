package billing

import "context"

// gatewayMetricsRecorder は決済ゲートウェイの計装に必要なメトリクス記録インターフェース。
type gatewayMetricsRecorder interface {
	RecordCheckoutSessionCreated(plan string)
	RecordProviderError(provider string, step string)
}

// InstrumentedGateway はゲートウェイ呼び出しの成否をメトリクスに記録するデコレーター。
type InstrumentedGateway struct {
	inner    Gateway
	recorder gatewayMetricsRecorder
}

// NewInstrumentedGateway はGatewayを計装付きでラップする。
func NewInstrumentedGateway(inner Gateway, recorder gatewayMetricsRecorder) *InstrumentedGateway {
	return &InstrumentedGateway{inner: inner, recorder: recorder}
}

// FindCustomerByEmail はメールアドレスで既存顧客を検索する。
func (g *InstrumentedGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	id, err := g.inner.FindCustomerByEmail(ctx, email)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "customer_find")
	}
	return id, err
}

// CreateCustomer は顧客を作成し、顧客IDを返す。
func (g *InstrumentedGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	id, err := g.inner.CreateCustomer(ctx, email, name)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "customer_create")
	}
	return id, err
}

// CreateCheckoutSession はチェックアウトセッションを作成し、プラン別に記録する。
func (g *InstrumentedGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	url, err := g.inner.CreateCheckoutSession(ctx, params)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "checkout_session_create")
		return "", err
	}
	plan := params.Metadata["plan"]
	if plan == "" {
		plan = "unknown"
	}
	g.recorder.RecordCheckoutSessionCreated(plan)
	return url, nil
}

// GetCheckoutSessionEmail はチェックアウトセッションのメールアドレスを取得する。
func (g *InstrumentedGateway) GetCheckoutSessionEmail(ctx context.Context, sessionID string) (string, error) {
	email, err := g.inner.GetCheckoutSessionEmail(ctx, sessionID)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "checkout_session_get")
	}
	return email, err
}

// GetCheckoutSessionDetails はチェックアウトセッションの詳細を取得する。
func (g *InstrumentedGateway) GetCheckoutSessionDetails(ctx context.Context, sessionID string) (*CheckoutSessionDetails, error) {
	details, err := g.inner.GetCheckoutSessionDetails(ctx, sessionID)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "checkout_session_get")
	}
	return details, err
}

// GetSubscription はサブスクリプションの現在状態を取得する。
func (g *InstrumentedGateway) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	sub, err := g.inner.GetSubscription(ctx, subscriptionID)
	if err != nil {
		g.recorder.RecordProviderError("stripe", "subscription_get")
	}
	return sub, err
}

// インターフェース実装のコンパイル時チェック
var _ Gateway = (*InstrumentedGateway)(nil)
