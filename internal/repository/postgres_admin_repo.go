package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veyz1992/restohub/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者権限リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// IsAdmin は指定プロフィールが管理者かどうかを返す。
func (r *PostgresAdminRepo) IsAdmin(ctx context.Context, profileID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE profile_id = $1)`,
		profileID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}

// List は管理者一覧を返す。
func (r *PostgresAdminRepo) List(ctx context.Context) ([]*model.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT profile_id, role, created_at FROM admin_users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var results []*model.AdminUser
	for rows.Next() {
		a := &model.AdminUser{}
		if err := rows.Scan(&a.ProfileID, &a.Role, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admins: %w", err)
	}
	return results, nil
}

// Grant は管理者権限を付与する。既に付与済みの場合は冪等に成功する。
func (r *PostgresAdminRepo) Grant(ctx context.Context, profileID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (profile_id, role, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (profile_id) DO UPDATE SET role = EXCLUDED.role`,
		profileID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	return nil
}

// Revoke は管理者権限を剥奪する。
func (r *PostgresAdminRepo) Revoke(ctx context.Context, profileID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM admin_users WHERE profile_id = $1`, profileID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke admin: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("admin not found: %s", profileID)
	}
	return nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
