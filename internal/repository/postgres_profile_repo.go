package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/veyz1992/restohub/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, email, name, company_name, city, state, stripe_customer_id, created_at, updated_at`

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	err := row.Scan(
		&p.ID, &p.Email, &p.Name, &p.CompanyName, &p.City, &p.State,
		&p.StripeCustomerID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return p, nil
}

// FindByEmail はメールアドレスでプロフィールを検索する。
// 照合は大文字小文字を区別しない。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}
	return p, nil
}

// Create はプロフィールを作成する。メールアドレスは小文字に正規化して保存する。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, name, company_name, city, state, stripe_customer_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		profile.ID, strings.ToLower(profile.Email), profile.Name, profile.CompanyName,
		profile.City, profile.State, profile.StripeCustomerID,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Update はプロフィールの表示項目を更新する。
// 空文字列のフィールドは既存値を維持する（再提出で入力済みの項目を消さない）。
func (r *PostgresProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET name = CASE WHEN $2 = '' THEN name ELSE $2 END,
		     company_name = CASE WHEN $3 = '' THEN company_name ELSE $3 END,
		     city = CASE WHEN $4 = '' THEN city ELSE $4 END,
		     state = CASE WHEN $5 = '' THEN state ELSE $5 END,
		     updated_at = now()
		 WHERE id = $1`,
		profile.ID, profile.Name, profile.CompanyName, profile.City, profile.State,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found: %s", profile.ID)
	}
	return nil
}

// SetStripeCustomerID はプロフィールに決済プロバイダーの顧客IDを紐付ける。
func (r *PostgresProfileRepo) SetStripeCustomerID(ctx context.Context, profileID, customerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET stripe_customer_id = $2, updated_at = now() WHERE id = $1`,
		profileID, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer ID: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのプロフィールを削除する。
// 関連するassessments、sessions、members等はCASCADE削除される。
func (r *PostgresProfileRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
