package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veyz1992/restohub/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したログインリンクトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.MagicLinkToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO magic_link_tokens (id, profile_id, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.ProfileID, token.Token, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert magic link token: %w", err)
	}
	return nil
}

// Consume はトークンを消費し、紐付くプロフィールIDを返す。
// 未消費かつ期限内のトークンのみを対象に、1つのUPDATE文で消費を記録する。
// 対象行がない（無効・期限切れ・消費済み）場合は空文字列を返す。
// 単一のUPDATE ... RETURNINGで行うため、同時実行でも二重消費は起きない。
func (r *PostgresTokenRepo) Consume(ctx context.Context, token string) (string, error) {
	var profileID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE magic_link_tokens
		 SET consumed_at = now()
		 WHERE token = $1 AND consumed_at IS NULL AND expires_at > now()
		 RETURNING profile_id`,
		token,
	).Scan(&profileID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume magic link token: %w", err)
	}
	return profileID, nil
}

// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
// 消費済みトークンも期限を過ぎれば削除対象になる。
func (r *PostgresTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM magic_link_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired magic link tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
