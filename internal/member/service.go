// Package member は認定会員の管理ドメインロジックを提供する。
package member

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// Detail は会員詳細（書類・サブスクリプション付き）を表す。
type Detail struct {
	Member       *model.Member
	Documents    []*model.MemberDocument
	Subscription *model.Subscription
}

// UpdateInput は管理画面からの会員更新入力。
// 空のフィールドは既存値を維持する。
type UpdateInput struct {
	Tier          string
	Status        string
	Rating        string
	RenewalDate   string // YYYY-MM-DD
	BadgeStatus   string
	BadgeLabel    string
	BadgeImageURL string
}

// Service は会員管理のサービス層。
type Service struct {
	memberRepo  repository.MemberRepository
	subRepo     repository.SubscriptionRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	memberRepo repository.MemberRepository,
	subRepo repository.SubscriptionRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
) *Service {
	return &Service{
		memberRepo:  memberRepo,
		subRepo:     subRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
	}
}

// List は検索・絞り込み・ソート条件を適用した会員一覧を返す。
// 絞り込みとソートはSQL側で行う。
func (s *Service) List(ctx context.Context, filter repository.MemberFilter) ([]*model.Member, error) {
	members, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Get は会員詳細を提出書類・サブスクリプション付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	member, err := s.memberRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(id)
	}

	documents, err := s.memberRepo.ListDocuments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list member documents: %w", err)
	}

	subscription, err := s.subRepo.FindByMemberID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find member subscription: %w", err)
	}

	return &Detail{
		Member:       member,
		Documents:    documents,
		Subscription: subscription,
	}, nil
}

// Update は管理画面から編集可能な項目を更新する。
// 指定されなかった項目は既存値を維持する。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(id)
	}

	var details []string
	if input.Tier != "" {
		if !model.IsValidTier(input.Tier) {
			details = append(details, "tier: must be one of Bronze, Silver, Gold, Founding Member")
		} else {
			member.Tier = model.Tier(input.Tier)
		}
	}
	if input.Status != "" {
		if !model.IsValidMemberStatus(input.Status) {
			details = append(details, "status: must be one of Active, Pending, Suspended, Canceled")
		} else {
			member.Status = model.MemberStatus(input.Status)
		}
	}
	if input.Rating != "" {
		if !model.IsValidRating(input.Rating) {
			details = append(details, "rating: must be one of B+, A-, A, A+")
		} else {
			member.Rating = input.Rating
		}
	}
	if input.RenewalDate != "" {
		renewal, err := time.Parse("2006-01-02", input.RenewalDate)
		if err != nil {
			details = append(details, "renewal_date: must be formatted as YYYY-MM-DD")
		} else {
			member.RenewalDate = renewal
		}
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	if input.BadgeStatus != "" {
		member.Badge.Status = input.BadgeStatus
	}
	if input.BadgeLabel != "" {
		member.Badge.Label = input.BadgeLabel
	}
	if input.BadgeImageURL != "" {
		member.Badge.ImageURL = input.BadgeImageURL
	}

	if err := s.memberRepo.UpdateAdminFields(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	slog.Info("member updated",
		slog.String("member_id", member.ID),
		slog.String("tier", string(member.Tier)),
		slog.String("status", string(member.Status)),
	)
	return member, nil
}

// Withdraw は退会処理を実行する。
// セッションを削除した後プロフィールを削除し、
// 会員・アセスメント・サブスクリプション等の関連行はCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, profileID string) error {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return model.NewProfileNotFoundError()
	}

	slog.Info("withdrawal started", slog.String("profile_id", profileID))

	if err := s.sessionRepo.DeleteByProfileID(ctx, profileID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	if err := s.profileRepo.DeleteByID(ctx, profileID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	slog.Info("withdrawal completed", slog.String("profile_id", profileID))
	return nil
}
