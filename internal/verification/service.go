// Package verification は審査書類のレビューと一括承認のドメインロジックを提供する。
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
)

// ReviewInput はレビュー更新の入力。
type ReviewInput struct {
	Status string
	Note   string
}

// SubmitInput は会員による書類提出の入力。
type SubmitInput struct {
	DocumentType string
	ExpiresAt    *time.Time
}

// BulkApproveResult は一括承認の結果。
type BulkApproveResult struct {
	Approved        int    `json:"approved"`
	AlreadyApproved int    `json:"already_approved"`
	Message         string `json:"message"`
}

// Service は審査書類のサービス層。
type Service struct {
	verificationRepo repository.VerificationRepository
	memberRepo       repository.MemberRepository
	sanitizer        security.InputSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	verificationRepo repository.VerificationRepository,
	memberRepo repository.MemberRepository,
	sanitizer security.InputSanitizerService,
) *Service {
	return &Service{
		verificationRepo: verificationRepo,
		memberRepo:       memberRepo,
		sanitizer:        sanitizer,
	}
}

// Submit は会員からの書類提出を受け付け、レビュー待ちの書類を作成する。
func (s *Service) Submit(ctx context.Context, profileID string, input SubmitInput) (*model.Verification, error) {
	documentType := s.sanitizer.SanitizeText(input.DocumentType)
	if documentType == "" {
		return nil, model.NewValidationError([]string{"document_type: required"})
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, model.NewValidationError([]string{"expires_at: must be in the future"})
	}

	member, err := s.memberRepo.FindByProfileID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member by profile: %w", err)
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(profileID)
	}

	now := time.Now()
	v := &model.Verification{
		ID:           uuid.New().String(),
		MemberID:     member.ID,
		DocumentType: documentType,
		Status:       model.VerificationStatusPending,
		UploadedAt:   now,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.verificationRepo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create verification: %w", err)
	}

	slog.Info("verification submitted",
		slog.String("verification_id", v.ID),
		slog.String("member_id", member.ID),
		slog.String("document_type", documentType),
	)
	return v, nil
}

// List は絞り込み条件を適用した審査書類一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.VerificationFilter) ([]*model.Verification, error) {
	verifications, err := s.verificationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	return verifications, nil
}

// Review はレビュー結果を記録する。
func (s *Service) Review(ctx context.Context, id, reviewedBy string, input ReviewInput) (*model.Verification, error) {
	if !model.IsValidVerificationStatus(input.Status) {
		return nil, model.NewValidationError([]string{
			"status: must be one of Pending, Approved, Rejected, Needs Replacement, Expired",
		})
	}

	existing, err := s.verificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find verification: %w", err)
	}
	if existing == nil {
		return nil, model.NewVerificationNotFoundError(id)
	}

	note := s.sanitizer.SanitizeNote(input.Note)
	status := model.VerificationStatus(input.Status)
	if err := s.verificationRepo.UpdateReview(ctx, id, status, note, reviewedBy); err != nil {
		return nil, fmt.Errorf("failed to update verification review: %w", err)
	}

	updated, err := s.verificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload verification: %w", err)
	}

	slog.Info("verification reviewed",
		slog.String("verification_id", id),
		slog.String("status", input.Status),
		slog.String("reviewed_by", reviewedBy),
	)
	return updated, nil
}

// BulkApprove は指定ID集合の書類を一括承認する。
// 承認前に既に承認済みだった件数を数え、結果メッセージに含める。
func (s *Service) BulkApprove(ctx context.Context, ids []string, reviewedBy string) (*BulkApproveResult, error) {
	if len(ids) == 0 {
		return nil, model.NewValidationError([]string{"ids: at least one verification ID is required"})
	}

	alreadyApproved, err := s.verificationRepo.CountInStatus(ctx, ids, model.VerificationStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count already approved verifications: %w", err)
	}

	approved, err := s.verificationRepo.ApproveAll(ctx, ids, reviewedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk approve verifications: %w", err)
	}

	slog.Info("verifications bulk approved",
		slog.Int("approved", approved),
		slog.Int("already_approved", alreadyApproved),
		slog.String("reviewed_by", reviewedBy),
	)
	return &BulkApproveResult{
		Approved:        approved,
		AlreadyApproved: alreadyApproved,
		Message:         fmt.Sprintf("%d approved. (%d were already approved.)", approved, alreadyApproved),
	}, nil
}
