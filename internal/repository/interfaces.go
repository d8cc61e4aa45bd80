// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/veyz1992/restohub/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindByEmail はメールアドレスでプロフィールを検索する。
	// 照合は大文字小文字を区別しない。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.Profile) error

	// Update はプロフィールの表示項目を更新する。
	// 空文字列のフィールドは既存値を維持する（COALESCE相当の部分更新）。
	Update(ctx context.Context, profile *model.Profile) error

	// SetStripeCustomerID はプロフィールに決済プロバイダーの顧客IDを紐付ける。
	SetStripeCustomerID(ctx context.Context, profileID, customerID string) error

	// DeleteByID は指定IDのプロフィールを削除する。
	// 関連するassessments、sessions、members等はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// AssessmentRepository はアセスメントデータの永続化インターフェース。
// アセスメントは追記専用であり、更新・削除メソッドは提供しない。
type AssessmentRepository interface {
	// Create はアセスメントを作成する。
	Create(ctx context.Context, assessment *model.Assessment) error

	// LatestByEmail は指定メールアドレスの最新アセスメントを返す。
	// 照合は大文字小文字を区別しない。見つからない場合はnilを返す。
	LatestByEmail(ctx context.Context, email string) (*model.Assessment, error)

	// ListByProfileID はプロフィールのアセスメント履歴を新しい順で返す。
	ListByProfileID(ctx context.Context, profileID string) ([]*model.Assessment, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByProfileID は指定プロフィールの全セッションを削除する。
	DeleteByProfileID(ctx context.Context, profileID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// TokenRepository はログインリンク用ワンタイムトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.MagicLinkToken) error

	// Consume はトークンを消費し、紐付くプロフィールIDを返す。
	// 有効（未消費かつ期限内）なトークンのみ消費でき、同一トランザクション内で
	// consumed_atを記録する。無効なトークンの場合は空文字列を返す。
	Consume(ctx context.Context, token string) (string, error)

	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// AdminRepository は管理者権限の永続化インターフェース。
type AdminRepository interface {
	// IsAdmin は指定プロフィールが管理者かどうかを返す。
	IsAdmin(ctx context.Context, profileID string) (bool, error)
	// List は管理者一覧を返す。
	List(ctx context.Context) ([]*model.AdminUser, error)
	// Grant は管理者権限を付与する。既に付与済みの場合は冪等に成功する。
	Grant(ctx context.Context, profileID, role string) error
	// Revoke は管理者権限を剥奪する。
	Revoke(ctx context.Context, profileID string) error
}

// MemberFilter は会員一覧の検索・絞り込み・ソート条件。
// SearchとTier・Statusの各条件はANDで結合する。
type MemberFilter struct {
	Search string // 事業者名・メールアドレスの部分一致
	Tier   string
	Status string
	SortBy string // business_name, tier, status, renewal_date, created_at
	Order  string // asc / desc
}

// MemberRepository は会員データの永続化インターフェース。
type MemberRepository interface {
	// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// FindByProfileID はプロフィールIDで会員を検索する。見つからない場合はnilを返す。
	FindByProfileID(ctx context.Context, profileID string) (*model.Member, error)

	// Create は会員を作成する。
	Create(ctx context.Context, member *model.Member) error

	// List は検索・絞り込み・ソート条件を適用した会員一覧を返す。
	List(ctx context.Context, filter MemberFilter) ([]*model.Member, error)

	// UpdateAdminFields は管理画面から編集可能な項目
	// （ランク・状態・評価・更新日・バッジ）を更新する。
	UpdateAdminFields(ctx context.Context, member *model.Member) error

	// ListDocuments は会員の提出書類一覧を返す。
	ListDocuments(ctx context.Context, memberID string) ([]*model.MemberDocument, error)

	// ListDueForReminder は更新期日がwindow以内に迫っており、
	// 今サイクルでまだ通知していない有効会員を返す。
	ListDueForReminder(ctx context.Context, window time.Duration, limit int) ([]*model.Member, error)

	// MarkReminded は更新通知の送信日時を記録する。
	MarkReminded(ctx context.Context, memberID string, at time.Time) error
}

// SubscriptionFilter はサブスクリプション一覧の絞り込み条件。
type SubscriptionFilter struct {
	Status string
	Plan   string
}

// SubscriptionRepository はサブスクリプションデータの永続化インターフェース。
type SubscriptionRepository interface {
	// FindByID は指定IDのサブスクリプションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Subscription, error)

	// FindByMemberID は会員の最新サブスクリプションを返す。見つからない場合はnilを返す。
	FindByMemberID(ctx context.Context, memberID string) (*model.Subscription, error)

	// Create はサブスクリプションを作成する。
	Create(ctx context.Context, subscription *model.Subscription) error

	// List は絞り込み条件を適用したサブスクリプション一覧を返す。
	List(ctx context.Context, filter SubscriptionFilter) ([]*model.Subscription, error)

	// HasActiveLikeByEmail は指定メールアドレスのプロフィールに
	// active・trialing・past_dueいずれかのサブスクリプションが存在するかを返す。
	// 照合は大文字小文字を区別しない。
	HasActiveLikeByEmail(ctx context.Context, email string) (bool, error)

	// UpdateAdminFields は管理画面から編集可能な項目（請求サイクル・状態）を更新する。
	UpdateAdminFields(ctx context.Context, id string, billingCycle model.BillingCycle, status model.SubscriptionStatus) error

	// UpdateProviderState は決済プロバイダーとの照合結果
	// （状態・期間終了日時・照合日時）を記録する。
	UpdateProviderState(ctx context.Context, id string, status model.SubscriptionStatus, periodEnd time.Time, syncedAt time.Time) error

	// ListStale は照合日時がstaleAfterより古い（または未照合の）
	// プロバイダー連携済みサブスクリプションを古い順にlimit件返す。
	ListStale(ctx context.Context, staleAfter time.Duration, limit int) ([]*model.Subscription, error)
}

// VerificationFilter は審査書類一覧の絞り込み条件。
type VerificationFilter struct {
	Status       string
	DocumentType string
	MemberID     string
}

// VerificationRepository は審査書類データの永続化インターフェース。
type VerificationRepository interface {
	// FindByID は指定IDの審査書類を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Verification, error)

	// Create は審査書類を作成する。
	Create(ctx context.Context, verification *model.Verification) error

	// List は絞り込み条件を適用した審査書類一覧を返す。
	List(ctx context.Context, filter VerificationFilter) ([]*model.Verification, error)

	// UpdateReview はレビュー結果（状態・メモ・レビュー者）を更新する。
	UpdateReview(ctx context.Context, id string, status model.VerificationStatus, note, reviewedBy string) error

	// CountInStatus は指定ID集合のうち、既に指定状態にある件数を返す。
	CountInStatus(ctx context.Context, ids []string, status model.VerificationStatus) (int, error)

	// ApproveAll は指定ID集合の書類を一括で承認済みに更新し、更新件数を返す。
	ApproveAll(ctx context.Context, ids []string, reviewedBy string) (int, error)

	// ExpireOverdue は有効期限を過ぎた書類をExpiredに更新し、更新件数を返す。
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// ServiceRequestFilter はサービスリクエスト一覧の絞り込み条件。
type ServiceRequestFilter struct {
	Status   string
	Priority string
	Assignee string
}

// ServiceRequestRepository はサービスリクエストデータの永続化インターフェース。
type ServiceRequestRepository interface {
	// FindByID は指定IDのサービスリクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ServiceRequest, error)

	// Create はサービスリクエストを作成する。
	Create(ctx context.Context, request *model.ServiceRequest) error

	// List は絞り込み条件を適用したサービスリクエスト一覧を返す。
	List(ctx context.Context, filter ServiceRequestFilter) ([]*model.ServiceRequest, error)

	// Update は進行状態・優先度・担当者・期日を更新する。
	Update(ctx context.Context, request *model.ServiceRequest) error

	// AddNote はタイムラインにメモを追加する。
	AddNote(ctx context.Context, note *model.ServiceRequestNote) error

	// ListNotes はリクエストのメモを古い順で返す。
	ListNotes(ctx context.Context, requestID string) ([]*model.ServiceRequestNote, error)
}
