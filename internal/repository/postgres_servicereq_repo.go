package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veyz1992/restohub/internal/model"
)

// PostgresServiceRequestRepo はPostgreSQLを使用したサービスリクエストリポジトリ。
type PostgresServiceRequestRepo struct {
	db *sql.DB
}

// NewPostgresServiceRequestRepo はPostgresServiceRequestRepoを生成する。
func NewPostgresServiceRequestRepo(db *sql.DB) *PostgresServiceRequestRepo {
	return &PostgresServiceRequestRepo{db: db}
}

const serviceRequestColumns = `r.id, r.member_id, r.type, r.priority, r.status, r.assignee,
	r.due_date, r.created_at, r.updated_at`

func scanServiceRequest(scan func(dest ...any) error) (*model.ServiceRequest, error) {
	req := &model.ServiceRequest{}
	var priority, status string
	var dueDate sql.NullTime
	err := scan(
		&req.ID, &req.MemberID, &req.Type, &priority, &status, &req.Assignee,
		&dueDate, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Priority = model.RequestPriority(priority)
	req.Status = model.RequestStatus(status)
	if dueDate.Valid {
		t := dueDate.Time
		req.DueDate = &t
	}
	return req, nil
}

// FindByID は指定IDのサービスリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresServiceRequestRepo) FindByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serviceRequestColumns+` FROM service_requests r WHERE r.id = $1`, id,
	)
	req, err := scanServiceRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service request by ID: %w", err)
	}
	return req, nil
}

// Create はサービスリクエストを作成する。
func (r *PostgresServiceRequestRepo) Create(ctx context.Context, req *model.ServiceRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_requests
		 (id, member_id, type, priority, status, assignee, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.MemberID, req.Type, string(req.Priority), string(req.Status),
		req.Assignee, req.DueDate, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

// List は絞り込み条件を適用したサービスリクエスト一覧を返す。
func (r *PostgresServiceRequestRepo) List(ctx context.Context, filter ServiceRequestFilter) ([]*model.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests r WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND r.status = $%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(` AND r.priority = $%d`, len(args))
	}
	if filter.Assignee != "" {
		args = append(args, filter.Assignee)
		query += fmt.Sprintf(` AND r.assignee = $%d`, len(args))
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer rows.Close()

	var results []*model.ServiceRequest
	for rows.Next() {
		req, err := scanServiceRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		results = append(results, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service requests: %w", err)
	}
	return results, nil
}

// Update は進行状態・優先度・担当者・期日を更新する。
func (r *PostgresServiceRequestRepo) Update(ctx context.Context, req *model.ServiceRequest) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE service_requests
		 SET priority = $2, status = $3, assignee = $4, due_date = $5, updated_at = now()
		 WHERE id = $1`,
		req.ID, string(req.Priority), string(req.Status), req.Assignee, req.DueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("service request not found: %s", req.ID)
	}
	return nil
}

// AddNote はタイムラインにメモを追加する。
func (r *PostgresServiceRequestRepo) AddNote(ctx context.Context, note *model.ServiceRequestNote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_request_notes (id, request_id, author, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		note.ID, note.RequestID, note.Author, note.Body, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert service request note: %w", err)
	}
	return nil
}

// ListNotes はリクエストのメモを古い順で返す。
func (r *PostgresServiceRequestRepo) ListNotes(ctx context.Context, requestID string) ([]*model.ServiceRequestNote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, request_id, author, body, created_at
		 FROM service_request_notes
		 WHERE request_id = $1
		 ORDER BY created_at`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list service request notes: %w", err)
	}
	defer rows.Close()

	var results []*model.ServiceRequestNote
	for rows.Next() {
		n := &model.ServiceRequestNote{}
		if err := rows.Scan(&n.ID, &n.RequestID, &n.Author, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service request note: %w", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service request notes: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ ServiceRequestRepository = (*PostgresServiceRequestRepo)(nil)
