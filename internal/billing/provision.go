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

// ProvisionResult はチェックアウト完了処理の結果。
type ProvisionResult struct {
	MemberID       string `json:"member_id"`
	SubscriptionID string `json:"subscription_id"`
	Plan           string `json:"plan"`
}

// ProvisionService はチェックアウト完了後の会員・サブスクリプション払い出しを提供する。
// ウェルカムページがセッションIDを提示して呼び出す。
type ProvisionService struct {
	profileRepo repository.ProfileRepository
	memberRepo  repository.MemberRepository
	subRepo     repository.SubscriptionRepository
	gateway     Gateway
}

// NewProvisionService はProvisionServiceを生成する。
func NewProvisionService(
	profileRepo repository.ProfileRepository,
	memberRepo repository.MemberRepository,
	subRepo repository.SubscriptionRepository,
	gateway Gateway,
) *ProvisionService {
	return &ProvisionService{
		profileRepo: profileRepo,
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		gateway:     gateway,
	}
}

// Complete はチェックアウトセッションを検証し、会員とサブスクリプションの
// レコードを払い出す。同じセッションで再度呼ばれた場合は既存レコードを返す（冪等）。
func (s *ProvisionService) Complete(ctx context.Context, sessionID string) (*ProvisionResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, model.NewValidationError([]string{"session_id: required"})
	}

	details, err := s.gateway.GetCheckoutSessionDetails(ctx, sessionID)
	if err != nil {
		slog.Error("failed to retrieve checkout session",
			slog.String("step", "checkout_session_get"),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPaymentProviderError()
	}
	if details.SubscriptionID == "" {
		return nil, model.NewCheckoutIncompleteError()
	}

	profile, err := s.resolveProfile(ctx, details)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError()
	}

	providerSub, err := s.gateway.GetSubscription(ctx, details.SubscriptionID)
	if err != nil {
		slog.Error("failed to retrieve subscription",
			slog.String("step", "subscription_get"),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPaymentProviderError()
	}

	planSlug := plan.Normalize(details.Metadata["plan"])

	member, err := s.findOrCreateMember(ctx, profile, planSlug, providerSub)
	if err != nil {
		return nil, err
	}

	subscription, err := s.findOrCreateSubscription(ctx, member.ID, planSlug, providerSub)
	if err != nil {
		return nil, err
	}

	slog.Info("checkout provisioned",
		slog.String("member_id", member.ID),
		slog.String("subscription_id", subscription.ID),
		slog.String("plan", planSlug),
	)
	return &ProvisionResult{
		MemberID:       member.ID,
		SubscriptionID: subscription.ID,
		Plan:           planSlug,
	}, nil
}

// resolveProfile はセッションメタデータのプロフィールID、なければ
// メールアドレスでプロフィールを解決する。
func (s *ProvisionService) resolveProfile(ctx context.Context, details *CheckoutSessionDetails) (*model.Profile, error) {
	if profileID := details.Metadata["profile_id"]; profileID != "" {
		profile, err := s.profileRepo.FindByID(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("failed to find profile by ID: %w", err)
		}
		if profile != nil {
			return profile, nil
		}
	}
	if details.Email == "" {
		return nil, nil
	}
	profile, err := s.profileRepo.FindByEmail(ctx, details.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}
	return profile, nil
}

func (s *ProvisionService) findOrCreateMember(ctx context.Context, profile *model.Profile, planSlug string, providerSub *ProviderSubscription) (*model.Member, error) {
	member, err := s.memberRepo.FindByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member by profile: %w", err)
	}
	if member != nil {
		return member, nil
	}

	businessName := profile.CompanyName
	if businessName == "" {
		businessName = profile.Name
	}
	if businessName == "" {
		businessName = profile.Email
	}

	status := model.MemberStatusPending
	for _, activeLike := range model.ActiveLikeStatuses {
		if providerSub.Status == string(activeLike) {
			status = model.MemberStatusActive
			break
		}
	}

	now := time.Now()
	member = &model.Member{
		ID:           uuid.New().String(),
		ProfileID:    profile.ID,
		BusinessName: businessName,
		Tier:         model.Tier(plan.Lookup(planSlug).Tier),
		Status:       status,
		RenewalDate:  providerSub.CurrentPeriodEnd,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	slog.Info("member provisioned",
		slog.String("member_id", member.ID),
		slog.String("profile_id", profile.ID),
		slog.String("tier", string(member.Tier)),
	)
	return member, nil
}

func (s *ProvisionService) findOrCreateSubscription(ctx context.Context, memberID, planSlug string, providerSub *ProviderSubscription) (*model.Subscription, error) {
	existing, err := s.subRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription by member: %w", err)
	}
	if existing != nil && existing.StripeSubscriptionID == providerSub.ID {
		return existing, nil
	}

	billingCycle := model.BillingCycleMonthly
	if providerSub.Interval == "year" {
		billingCycle = model.BillingCycleAnnual
	}
	status := model.SubscriptionStatus(providerSub.Status)
	if !model.IsValidSubscriptionStatus(providerSub.Status) {
		status = model.SubscriptionStatusActive
	}

	now := time.Now()
	subscription := &model.Subscription{
		ID:                   uuid.New().String(),
		MemberID:             memberID,
		StripeSubscriptionID: providerSub.ID,
		Plan:                 planSlug,
		PriceCents:           providerSub.PriceCents,
		BillingCycle:         billingCycle,
		Status:               status,
		CurrentPeriodEnd:     providerSub.CurrentPeriodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.subRepo.Create(ctx, subscription); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return subscription, nil
}
