package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/veyz1992/restohub/internal/model"
)

// PostgresVerificationRepo はPostgreSQLを使用した審査書類リポジトリ。
type PostgresVerificationRepo struct {
	db *sql.DB
}

// NewPostgresVerificationRepo はPostgresVerificationRepoを生成する。
func NewPostgresVerificationRepo(db *sql.DB) *PostgresVerificationRepo {
	return &PostgresVerificationRepo{db: db}
}

const verificationColumns = `v.id, v.member_id, v.document_type, v.status, v.uploaded_at,
	v.expires_at, v.note, COALESCE(v.reviewed_by::text, ''), v.created_at, v.updated_at`

func scanVerification(scan func(dest ...any) error) (*model.Verification, error) {
	v := &model.Verification{}
	var status string
	var expiresAt sql.NullTime
	err := scan(
		&v.ID, &v.MemberID, &v.DocumentType, &status, &v.UploadedAt,
		&expiresAt, &v.Note, &v.ReviewedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = model.VerificationStatus(status)
	if expiresAt.Valid {
		t := expiresAt.Time
		v.ExpiresAt = &t
	}
	return v, nil
}

// FindByID は指定IDの審査書類を取得する。見つからない場合はnilを返す。
func (r *PostgresVerificationRepo) FindByID(ctx context.Context, id string) (*model.Verification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications v WHERE v.id = $1`, id,
	)
	v, err := scanVerification(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find verification by ID: %w", err)
	}
	return v, nil
}

// Create は審査書類を作成する。
func (r *PostgresVerificationRepo) Create(ctx context.Context, v *model.Verification) error {
	var reviewedBy any
	if v.ReviewedBy != "" {
		reviewedBy = v.ReviewedBy
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verifications
		 (id, member_id, document_type, status, uploaded_at, expires_at, note, reviewed_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.MemberID, v.DocumentType, string(v.Status), v.UploadedAt,
		v.ExpiresAt, v.Note, reviewedBy, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

// List は絞り込み条件を適用した審査書類一覧を返す。
func (r *PostgresVerificationRepo) List(ctx context.Context, filter VerificationFilter) ([]*model.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications v WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND v.status = $%d`, len(args))
	}
	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		query += fmt.Sprintf(` AND v.document_type = $%d`, len(args))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		query += fmt.Sprintf(` AND v.member_id = $%d`, len(args))
	}
	query += ` ORDER BY v.uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	var results []*model.Verification
	for rows.Next() {
		v, err := scanVerification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verifications: %w", err)
	}
	return results, nil
}

// UpdateReview はレビュー結果（状態・メモ・レビュー者）を更新する。
func (r *PostgresVerificationRepo) UpdateReview(ctx context.Context, id string, status model.VerificationStatus, note, reviewedBy string) error {
	var reviewer any
	if reviewedBy != "" {
		reviewer = reviewedBy
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE verifications
		 SET status = $2, note = $3, reviewed_by = $4, updated_at = now()
		 WHERE id = $1`,
		id, string(status), note, reviewer,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("verification not found: %s", id)
	}
	return nil
}

// CountInStatus は指定ID集合のうち、既に指定状態にある件数を返す。
// 一括承認のサマリーメッセージ（既に承認済みだった件数）に使用する。
func (r *PostgresVerificationRepo) CountInStatus(ctx context.Context, ids []string, status model.VerificationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verifications WHERE id = ANY($1) AND status = $2`,
		pq.Array(ids), string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verifications in status: %w", err)
	}
	return count, nil
}

// ApproveAll は指定ID集合の書類を一括で承認済みに更新し、更新件数を返す。
// 既に承認済みの行も含めて同一状態に揃える（冪等）。
func (r *PostgresVerificationRepo) ApproveAll(ctx context.Context, ids []string, reviewedBy string) (int, error) {
	var reviewer any
	if reviewedBy != "" {
		reviewer = reviewedBy
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE verifications
		 SET status = $2, reviewed_by = $3, updated_at = now()
		 WHERE id = ANY($1)`,
		pq.Array(ids), string(model.VerificationStatusApproved), reviewer,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk approve verifications: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// ExpireOverdue は有効期限を過ぎた書類をExpiredに更新し、更新件数を返す。
// 既にExpired・Rejectedの書類は対象外。冪等に実行できる。
func (r *PostgresVerificationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE verifications
		 SET status = $2, updated_at = now()
		 WHERE expires_at IS NOT NULL
		   AND expires_at <= $1
		   AND status NOT IN ($2, $3)`,
		now, string(model.VerificationStatusExpired), string(model.VerificationStatusRejected),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire verifications: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// compile-time interface check
var _ VerificationRepository = (*PostgresVerificationRepo)(nil)
