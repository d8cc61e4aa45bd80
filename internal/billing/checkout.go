package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/plan"
	"github.com/veyz1992/restohub/internal/repository"
)

// CheckoutConfig はチェックアウトサービスの設定。
type CheckoutConfig struct {
	// PriceIDs はプランスラッグ→価格IDの対応表。
	PriceIDs map[string]string
	// SiteURL・DeployURL・BaseURLはリダイレクトURLの組み立てに使用する。
	// 優先順位はリクエストのOrigin → SiteURL → DeployURL → BaseURL。
	SiteURL   string
	DeployURL string
	BaseURL   string
}

// CheckoutInput はチェックアウトセッション作成の入力。
type CheckoutInput struct {
	Email   string
	Name    string
	Plan    string // プランスラッグ。未知の値は既定プランに正規化される
	PriceID string // 明示指定された場合はプランより優先
	Origin  string // リクエストのOriginヘッダー
}

// CheckoutResult はチェックアウトセッション作成の結果。
type CheckoutResult struct {
	URL string `json:"url"`
}

// SessionEmailResult はセッションのメールアドレス照会の結果。
type SessionEmailResult struct {
	Email string `json:"email"`
}

// CheckoutService はチェックアウトフローのビジネスロジックを提供する。
type CheckoutService struct {
	profileRepo    repository.ProfileRepository
	assessmentRepo repository.AssessmentRepository
	gateway        Gateway
	config         CheckoutConfig
}

// NewCheckoutService はCheckoutServiceを生成する。
func NewCheckoutService(
	profileRepo repository.ProfileRepository,
	assessmentRepo repository.AssessmentRepository,
	gateway Gateway,
	config CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		profileRepo:    profileRepo,
		assessmentRepo: assessmentRepo,
		gateway:        gateway,
		config:         config,
	}
}

// CreateSession はサブスクリプション購入用のチェックアウトセッションを作成する。
// プロフィールと決済プロバイダーの顧客はfind-or-createで解決し、
// 顧客IDはプロフィールに永続化する。
func (s *CheckoutService) CreateSession(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError([]string{"email: valid email address is required"})
	}

	planSlug := plan.Normalize(input.Plan)
	priceID := input.PriceID
	if priceID == "" {
		priceID = s.config.PriceIDs[string(planSlug)]
	}
	if priceID == "" {
		return nil, model.NewValidationError([]string{"plan: no price configured for plan " + string(planSlug)})
	}

	profile, err := s.findOrCreateProfile(ctx, email, input.Name)
	if err != nil {
		return nil, err
	}

	customerID, err := s.findOrCreateCustomer(ctx, profile)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"plan":       string(planSlug),
		"profile_id": profile.ID,
	}
	// 最新のアセスメントがあればメタデータに紐付ける。
	// 履歴の取得失敗で購入フローを止めない。
	if assessments, err := s.assessmentRepo.ListByProfileID(ctx, profile.ID); err != nil {
		slog.Warn("failed to list assessments for checkout metadata",
			slog.String("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
	} else if len(assessments) > 0 {
		metadata["assessment_id"] = assessments[0].ID
	}

	base := redirectBase(input.Origin, s.config)
	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: base + "/welcome?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/join",
		Metadata:   metadata,
	})
	if err != nil {
		slog.Error("failed to create checkout session",
			slog.String("step", "checkout_session_create"),
			slog.String("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPaymentProviderError()
	}
	if url == "" {
		slog.Error("checkout session has no redirect URL",
			slog.String("step", "checkout_session_create"),
			slog.String("profile_id", profile.ID),
		)
		return nil, model.NewPaymentProviderError()
	}

	slog.Info("checkout session created",
		slog.String("profile_id", profile.ID),
		slog.String("plan", string(planSlug)),
	)
	return &CheckoutResult{URL: url}, nil
}

// SessionEmail はチェックアウトセッションに紐付くメールアドレスを返す。
func (s *CheckoutService) SessionEmail(ctx context.Context, sessionID string) (*SessionEmailResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, model.NewValidationError([]string{"session_id: required"})
	}

	email, err := s.gateway.GetCheckoutSessionEmail(ctx, sessionID)
	if err != nil {
		slog.Error("failed to retrieve checkout session",
			slog.String("step", "checkout_session_get"),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPaymentProviderError()
	}
	if email == "" {
		return nil, model.NewSessionEmailMissingError()
	}
	return &SessionEmailResult{Email: email}, nil
}

func (s *CheckoutService) findOrCreateProfile(ctx context.Context, email, name string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	now := time.Now()
	profile = &model.Profile{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	slog.Info("profile created for checkout", slog.String("profile_id", profile.ID))
	return profile, nil
}

func (s *CheckoutService) findOrCreateCustomer(ctx context.Context, profile *model.Profile) (string, error) {
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	customerID, err := s.gateway.FindCustomerByEmail(ctx, profile.Email)
	if err != nil {
		slog.Error("failed to look up customer",
			slog.String("step", "customer_lookup"),
			slog.String("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
		return "", model.NewPaymentProviderError()
	}

	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, profile.Email, profile.Name)
		if err != nil {
			slog.Error("failed to create customer",
				slog.String("step", "customer_create"),
				slog.String("profile_id", profile.ID),
				slog.String("error", err.Error()),
			)
			return "", model.NewPaymentProviderError()
		}
	}

	if err := s.profileRepo.SetStripeCustomerID(ctx, profile.ID, customerID); err != nil {
		return "", fmt.Errorf("failed to persist customer ID: %w", err)
	}
	return customerID, nil
}

// redirectBase はリダイレクトURLのベースを優先順位に従って解決する。
func redirectBase(origin string, config CheckoutConfig) string {
	for _, candidate := range []string{origin, config.SiteURL, config.DeployURL, config.BaseURL} {
		if candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return ""
}
