// Package model はドメインモデルを定義する。
package model

import "time"

// SubscriptionStatus はサブスクリプションの状態を表す。
// 決済プロバイダー側のステータスをそのまま小文字で保持する。
type SubscriptionStatus string

const (
	// SubscriptionStatusActive は有効な契約状態。
	SubscriptionStatusActive SubscriptionStatus = "active"
	// SubscriptionStatusTrialing はトライアル中の契約状態。
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	// SubscriptionStatusPastDue は支払い遅延中の契約状態。
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
	// SubscriptionStatusCanceled は解約済みの契約状態。
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// ActiveLikeStatuses は「会員として有効」と見なすサブスクリプション状態の集合。
// 適格性チェックで reason "member" を返す判定に使用する。
var ActiveLikeStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusTrialing,
	SubscriptionStatusPastDue,
}

// BillingCycle は請求サイクルを表す。
type BillingCycle string

const (
	// BillingCycleMonthly は月次請求。
	BillingCycleMonthly BillingCycle = "Monthly"
	// BillingCycleAnnual は年次請求。
	BillingCycleAnnual BillingCycle = "Annual"
)

// IsValidSubscriptionStatus はサブスクリプション状態が定義済みのいずれかであるかを返す。
func IsValidSubscriptionStatus(s string) bool {
	switch SubscriptionStatus(s) {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue, SubscriptionStatusCanceled:
		return true
	}
	return false
}

// IsValidBillingCycle は請求サイクルが定義済みのいずれかであるかを返す。
func IsValidBillingCycle(c string) bool {
	switch BillingCycle(c) {
	case BillingCycleMonthly, BillingCycleAnnual:
		return true
	}
	return false
}

// Subscription は会員のサブスクリプション契約を表す。
type Subscription struct {
	ID                   string
	MemberID             string
	StripeSubscriptionID string
	Plan                 string // プランスラッグ
	PriceCents           int
	BillingCycle         BillingCycle
	Status               SubscriptionStatus
	CurrentPeriodEnd     time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MRRCents は月次換算収益（セント）を返す。
// 年次契約は12分の1に換算する。解約済みは0。
func (s *Subscription) MRRCents() int {
	if s.Status == SubscriptionStatusCanceled {
		return 0
	}
	if s.BillingCycle == BillingCycleAnnual {
		return s.PriceCents / 12
	}
	return s.PriceCents
}

// ChurnRisk はサブスクリプションの解約リスクラベルを導出する。
// past_dueは常にhigh、期間終了が14日以内のactiveはmedium、それ以外はlow。
func (s *Subscription) ChurnRisk(now time.Time) string {
	switch s.Status {
	case SubscriptionStatusPastDue:
		return "high"
	case SubscriptionStatusCanceled:
		return "churned"
	}
	if !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Sub(now) <= 14*24*time.Hour {
		return "medium"
	}
	return "low"
}
