// Package billing は決済プロバイダー連携（チェックアウト・サブスクリプション照合）を提供する。
package billing

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// CheckoutParams はチェックアウトセッション作成の入力。
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// ProviderSubscription はプロバイダー側のサブスクリプション状態。
type ProviderSubscription struct {
	ID               string
	Status           string
	CurrentPeriodEnd time.Time
	PriceCents       int
	Interval         string // month / year
}

// CheckoutSessionDetails は完了したチェックアウトセッションの詳細。
// 会員・サブスクリプションの払い出しに使用する。
type CheckoutSessionDetails struct {
	Email          string
	SubscriptionID string // 未完了のセッションでは空文字列
	Metadata       map[string]string
}

// Gateway は決済プロバイダーAPIのインターフェース。
// ハンドラーとテストがSDKに直接依存しないための抽象化。
type Gateway interface {
	// FindCustomerByEmail はメールアドレスで既存顧客を検索する。
	// 見つからない場合は空文字列を返す。
	FindCustomerByEmail(ctx context.Context, email string) (string, error)

	// CreateCustomer は顧客を作成し、顧客IDを返す。
	CreateCustomer(ctx context.Context, email, name string) (string, error)

	// CreateCheckoutSession はサブスクリプションモードの
	// チェックアウトセッションを作成し、リダイレクトURLを返す。
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// GetCheckoutSessionEmail はチェックアウトセッションに紐付く
	// メールアドレスを返す。取得できない場合は空文字列を返す。
	GetCheckoutSessionEmail(ctx context.Context, sessionID string) (string, error)

	// GetCheckoutSessionDetails はチェックアウトセッションの詳細
	// （メールアドレス・サブスクリプションID・メタデータ）を返す。
	GetCheckoutSessionDetails(ctx context.Context, sessionID string) (*CheckoutSessionDetails, error)

	// GetSubscription はサブスクリプションの現在状態を取得する。
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
}

// StripeGateway はStripe APIを使用したGatewayの実装。
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway はStripeGatewayを生成する。
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// FindCustomerByEmail はメールアドレスで既存顧客を検索する。
func (g *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := g.api.Customers.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list customers: %w", err)
	}
	return "", nil
}

// CreateCustomer は顧客を作成し、顧客IDを返す。
func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession はチェックアウトセッションを作成し、リダイレクトURLを返す。
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(p.CustomerID),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

// GetCheckoutSessionEmail はセッションの顧客詳細、なければ顧客レコードから
// メールアドレスを解決する。
func (g *StripeGateway) GetCheckoutSessionEmail(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("failed to get checkout session: %w", err)
	}

	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email, nil
	}
	if session.Customer != nil && session.Customer.Email != "" {
		return session.Customer.Email, nil
	}
	return "", nil
}

// GetCheckoutSessionDetails はセッションの詳細を取得する。
// サブスクリプションが未確定のセッションではSubscriptionIDは空文字列。
func (g *StripeGateway) GetCheckoutSessionDetails(ctx context.Context, sessionID string) (*CheckoutSessionDetails, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")
	params.AddExpand("subscription")

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	details := &CheckoutSessionDetails{
		Metadata: session.Metadata,
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		details.Email = session.CustomerDetails.Email
	} else if session.Customer != nil {
		details.Email = session.Customer.Email
	}
	if session.Subscription != nil {
		details.SubscriptionID = session.Subscription.ID
	}
	return details, nil
}

// GetSubscription はサブスクリプションの現在状態を取得する。
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	provider := &ProviderSubscription{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		provider.PriceCents = int(price.UnitAmount)
		if price.Recurring != nil {
			provider.Interval = string(price.Recurring.Interval)
		}
	}
	return provider, nil
}

// インターフェース実装のコンパイル時チェック
var _ Gateway = (*StripeGateway)(nil)
