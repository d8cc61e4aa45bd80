// Package subscription はサブスクリプションの管理ドメインロジックを提供する。
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// Row は一覧の1行。導出指標（チャーンリスク）を含む。
type Row struct {
	Subscription *model.Subscription
	ChurnRisk    string
}

// Metrics はサブスクリプション一覧の集計指標。
type Metrics struct {
	TotalMRRCents  int            `json:"total_mrr_cents"`
	CountsByStatus map[string]int `json:"counts_by_status"`
}

// ListResult はサブスクリプション一覧と集計指標。
type ListResult struct {
	Rows    []Row
	Metrics Metrics
}

// UpdateInput は管理画面からのサブスクリプション更新入力。
// 空のフィールドは既存値を維持する。
type UpdateInput struct {
	BillingCycle string
	Status       string
}

// Service はサブスクリプション管理のサービス層。
type Service struct {
	subRepo repository.SubscriptionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(subRepo repository.SubscriptionRepository) *Service {
	return &Service{subRepo: subRepo}
}

// List は絞り込み条件を適用した一覧を集計指標付きで返す。
// MRRは月次換算（年次契約は12分の1）、解約済みは0として合算する。
func (s *Service) List(ctx context.Context, filter repository.SubscriptionFilter) (*ListResult, error) {
	subscriptions, err := s.subRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	now := time.Now()
	result := &ListResult{
		Rows: make([]Row, len(subscriptions)),
		Metrics: Metrics{
			CountsByStatus: make(map[string]int),
		},
	}
	for i, sub := range subscriptions {
		result.Rows[i] = Row{
			Subscription: sub,
			ChurnRisk:    sub.ChurnRisk(now),
		}
		result.Metrics.TotalMRRCents += sub.MRRCents()
		result.Metrics.CountsByStatus[string(sub.Status)]++
	}
	return result, nil
}

// Update は請求サイクル・状態を更新する。
// 指定されなかった項目は既存値を維持する。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriptionNotFoundError(id)
	}

	var details []string
	if input.BillingCycle != "" {
		if !model.IsValidBillingCycle(input.BillingCycle) {
			details = append(details, "billing_cycle: must be Monthly or Annual")
		} else {
			sub.BillingCycle = model.BillingCycle(input.BillingCycle)
		}
	}
	if input.Status != "" {
		if !model.IsValidSubscriptionStatus(input.Status) {
			details = append(details, "status: must be one of active, trialing, past_due, canceled")
		} else {
			sub.Status = model.SubscriptionStatus(input.Status)
		}
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	if err := s.subRepo.UpdateAdminFields(ctx, id, sub.BillingCycle, sub.Status); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("subscription updated",
		slog.String("subscription_id", id),
		slog.String("billing_cycle", string(sub.BillingCycle)),
		slog.String("status", string(sub.Status)),
	)
	return sub, nil
}
