package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/veyz1992/restohub/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用したサブスクリプションリポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

const subscriptionColumns = `s.id, s.member_id, s.stripe_subscription_id, s.plan, s.price_cents,
	s.billing_cycle, s.status, s.current_period_end, s.created_at, s.updated_at`

func scanSubscription(scan func(dest ...any) error) (*model.Subscription, error) {
	s := &model.Subscription{}
	var cycle, status string
	var periodEnd sql.NullTime
	err := scan(
		&s.ID, &s.MemberID, &s.StripeSubscriptionID, &s.Plan, &s.PriceCents,
		&cycle, &status, &periodEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.BillingCycle = model.BillingCycle(cycle)
	s.Status = model.SubscriptionStatus(status)
	if periodEnd.Valid {
		s.CurrentPeriodEnd = periodEnd.Time
	}
	return s, nil
}

// FindByID は指定IDのサブスクリプションを取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions s WHERE s.id = $1`, id,
	)
	s, err := scanSubscription(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription by ID: %w", err)
	}
	return s, nil
}

// FindByMemberID は会員の最新サブスクリプションを返す。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByMemberID(ctx context.Context, memberID string) (*model.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 WHERE s.member_id = $1
		 ORDER BY s.created_at DESC
		 LIMIT 1`,
		memberID,
	)
	s, err := scanSubscription(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription by member ID: %w", err)
	}
	return s, nil
}

// Create はサブスクリプションを作成する。
func (r *PostgresSubscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	var periodEnd any
	if !s.CurrentPeriodEnd.IsZero() {
		periodEnd = s.CurrentPeriodEnd
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions
		 (id, member_id, stripe_subscription_id, plan, price_cents,
		  billing_cycle, status, current_period_end, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.MemberID, s.StripeSubscriptionID, s.Plan, s.PriceCents,
		string(s.BillingCycle), string(s.Status), periodEnd, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// List は絞り込み条件を適用したサブスクリプション一覧を返す。
func (r *PostgresSubscriptionRepo) List(ctx context.Context, filter SubscriptionFilter) ([]*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions s WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}
	if filter.Plan != "" {
		args = append(args, filter.Plan)
		query += fmt.Sprintf(` AND s.plan = $%d`, len(args))
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var results []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return results, nil
}

// HasActiveLikeByEmail は指定メールアドレスのプロフィールに
// 有効と見なすサブスクリプションが存在するかを返す。
func (r *PostgresSubscriptionRepo) HasActiveLikeByEmail(ctx context.Context, email string) (bool, error) {
	statuses := make([]string, len(model.ActiveLikeStatuses))
	for i, s := range model.ActiveLikeStatuses {
		statuses[i] = string(s)
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM subscriptions s
		   JOIN members m ON m.id = s.member_id
		   JOIN profiles p ON p.id = m.profile_id
		   WHERE lower(p.email) = lower($1) AND s.status = ANY($2)
		 )`,
		email, pq.Array(statuses),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active subscription: %w", err)
	}
	return exists, nil
}

// UpdateAdminFields は管理画面から編集可能な項目を更新する。
func (r *PostgresSubscriptionRepo) UpdateAdminFields(ctx context.Context, id string, billingCycle model.BillingCycle, status model.SubscriptionStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET billing_cycle = $2, status = $3, updated_at = now()
		 WHERE id = $1`,
		id, string(billingCycle), string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subscription not found: %s", id)
	}
	return nil
}

// UpdateProviderState は決済プロバイダーとの照合結果を記録する。
func (r *PostgresSubscriptionRepo) UpdateProviderState(ctx context.Context, id string, status model.SubscriptionStatus, periodEnd time.Time, syncedAt time.Time) error {
	var end any
	if !periodEnd.IsZero() {
		end = periodEnd
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET status = $2, current_period_end = $3, synced_at = $4, updated_at = now()
		 WHERE id = $1`,
		id, string(status), end, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider state: %w", err)
	}
	return nil
}

// ListStale は照合日時が古いプロバイダー連携済みサブスクリプションを返す。
func (r *PostgresSubscriptionRepo) ListStale(ctx context.Context, staleAfter time.Duration, limit int) ([]*model.Subscription, error) {
	interval := fmt.Sprintf("%d seconds", int(staleAfter.Seconds()))
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 WHERE s.stripe_subscription_id <> ''
		   AND (s.synced_at IS NULL OR s.synced_at < (now() - $1::interval))
		 ORDER BY s.synced_at NULLS FIRST
		 LIMIT $2`,
		interval, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale subscriptions: %w", err)
	}
	defer rows.Close()

	var results []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
