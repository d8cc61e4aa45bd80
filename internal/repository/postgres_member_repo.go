package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veyz1992/restohub/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用した会員リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

const memberColumns = `m.id, m.profile_id, m.business_name, m.tier, m.rating, m.status,
	m.renewal_date, m.badge_status, m.badge_label, m.badge_image_url,
	m.created_at, m.updated_at`

func scanMember(scan func(dest ...any) error) (*model.Member, error) {
	m := &model.Member{}
	var tier, status string
	err := scan(
		&m.ID, &m.ProfileID, &m.BusinessName, &tier, &m.Rating, &status,
		&m.RenewalDate, &m.Badge.Status, &m.Badge.Label, &m.Badge.ImageURL,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Tier = model.Tier(tier)
	m.Status = model.MemberStatus(status)
	return m, nil
}

// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members m WHERE m.id = $1`, id,
	)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by ID: %w", err)
	}
	return m, nil
}

// FindByProfileID はプロフィールIDで会員を検索する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByProfileID(ctx context.Context, profileID string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members m WHERE m.profile_id = $1`, profileID,
	)
	m, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by profile ID: %w", err)
	}
	return m, nil
}

// Create は会員を作成する。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members
		 (id, profile_id, business_name, tier, rating, status, renewal_date,
		  badge_status, badge_label, badge_image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		member.ID, member.ProfileID, member.BusinessName,
		string(member.Tier), member.Rating, string(member.Status), member.RenewalDate,
		member.Badge.Status, member.Badge.Label, member.Badge.ImageURL,
		member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// ソート可能なカラムのホワイトリスト。SQLインジェクション対策として
// ユーザー入力を直接カラム名に使用しない。
var memberSortColumns = map[string]string{
	"business_name": "m.business_name",
	"tier":          "m.tier",
	"status":        "m.status",
	"renewal_date":  "m.renewal_date",
	"created_at":    "m.created_at",
}

// List は検索・絞り込み・ソート条件を適用した会員一覧を返す。
// 検索語は事業者名とメールアドレスの部分一致、各フィルタはANDで結合する。
func (r *PostgresMemberRepo) List(ctx context.Context, filter MemberFilter) ([]*model.Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM members m
		JOIN profiles p ON p.id = m.profile_id
		WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (m.business_name ILIKE $%d OR p.email ILIKE $%d)`, len(args), len(args))
	}
	if filter.Tier != "" {
		args = append(args, filter.Tier)
		query += fmt.Sprintf(` AND m.tier = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND m.status = $%d`, len(args))
	}

	sortCol, ok := memberSortColumns[filter.SortBy]
	if !ok {
		sortCol = "m.created_at"
	}
	dir := "ASC"
	if filter.Order == "desc" {
		dir = "DESC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, sortCol, dir)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var results []*model.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return results, nil
}

// UpdateAdminFields は管理画面から編集可能な項目を更新する。
func (r *PostgresMemberRepo) UpdateAdminFields(ctx context.Context, member *model.Member) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE members
		 SET tier = $2, rating = $3, status = $4, renewal_date = $5,
		     badge_status = $6, badge_label = $7, badge_image_url = $8,
		     updated_at = now()
		 WHERE id = $1`,
		member.ID, string(member.Tier), member.Rating, string(member.Status),
		member.RenewalDate, member.Badge.Status, member.Badge.Label, member.Badge.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("member not found: %s", member.ID)
	}
	return nil
}

// ListDocuments は会員の提出書類一覧を返す。
func (r *PostgresMemberRepo) ListDocuments(ctx context.Context, memberID string) ([]*model.MemberDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, name, url, uploaded_at
		 FROM member_documents
		 WHERE member_id = $1
		 ORDER BY uploaded_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member documents: %w", err)
	}
	defer rows.Close()

	var results []*model.MemberDocument
	for rows.Next() {
		d := &model.MemberDocument{}
		if err := rows.Scan(&d.ID, &d.MemberID, &d.Name, &d.URL, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member document: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member documents: %w", err)
	}
	return results, nil
}

// ListDueForReminder は更新期日がwindow以内に迫っており、
// 期日のwindow以内にまだ通知していない有効会員を返す。
func (r *PostgresMemberRepo) ListDueForReminder(ctx context.Context, window time.Duration, limit int) ([]*model.Member, error) {
	interval := fmt.Sprintf("%d seconds", int(window.Seconds()))
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+`
		 FROM members m
		 WHERE m.status = 'Active'
		   AND m.renewal_date <= (now() + $1::interval)
		   AND (m.last_reminded_at IS NULL OR m.last_reminded_at < (now() - $1::interval))
		 ORDER BY m.renewal_date
		 LIMIT $2`,
		interval, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members due for reminder: %w", err)
	}
	defer rows.Close()

	var results []*model.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return results, nil
}

// MarkReminded は更新通知の送信日時を記録する。
func (r *PostgresMemberRepo) MarkReminded(ctx context.Context, memberID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE members SET last_reminded_at = $2 WHERE id = $1`,
		memberID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark member reminded: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
