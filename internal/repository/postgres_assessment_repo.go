package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/veyz1992/restohub/internal/model"
)

// PostgresAssessmentRepo はPostgreSQLを使用したアセスメントリポジトリ。
// アセスメントは追記専用のため、INSERTとSELECTのみを提供する。
type PostgresAssessmentRepo struct {
	db *sql.DB
}

// NewPostgresAssessmentRepo はPostgresAssessmentRepoを生成する。
func NewPostgresAssessmentRepo(db *sql.DB) *PostgresAssessmentRepo {
	return &PostgresAssessmentRepo{db: db}
}

// Create はアセスメントを作成する。
func (r *PostgresAssessmentRepo) Create(ctx context.Context, a *model.Assessment) error {
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO assessments
		 (id, profile_id, answers, score_operations, score_certifications,
		  score_equipment, score_insurance, score_reputation, total_score,
		  grade, eligible, eligibility_reasons, intended_plan, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.ProfileID, answersJSON,
		a.Scores.Operations, a.Scores.Certifications, a.Scores.Equipment,
		a.Scores.Insurance, a.Scores.Reputation, a.TotalScore,
		string(a.Grade), a.Eligible, pq.Array(a.EligibilityReasons),
		a.IntendedPlan, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

const assessmentColumns = `a.id, a.profile_id, a.answers, a.score_operations, a.score_certifications,
	a.score_equipment, a.score_insurance, a.score_reputation, a.total_score,
	a.grade, a.eligible, a.eligibility_reasons, a.intended_plan, a.created_at`

func scanAssessment(scan func(dest ...any) error) (*model.Assessment, error) {
	a := &model.Assessment{}
	var answersJSON []byte
	var grade string
	var reasons pq.StringArray

	err := scan(
		&a.ID, &a.ProfileID, &answersJSON,
		&a.Scores.Operations, &a.Scores.Certifications, &a.Scores.Equipment,
		&a.Scores.Insurance, &a.Scores.Reputation, &a.TotalScore,
		&grade, &a.Eligible, &reasons, &a.IntendedPlan, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Grade = model.Grade(grade)
	a.EligibilityReasons = []string(reasons)
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}
	return a, nil
}

// LatestByEmail は指定メールアドレスの最新アセスメントを返す。
// 照合は大文字小文字を区別しない。見つからない場合はnilを返す。
func (r *PostgresAssessmentRepo) LatestByEmail(ctx context.Context, email string) (*model.Assessment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments a
		 JOIN profiles p ON p.id = a.profile_id
		 WHERE lower(p.email) = lower($1)
		 ORDER BY a.created_at DESC
		 LIMIT 1`,
		email,
	)

	a, err := scanAssessment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest assessment: %w", err)
	}
	return a, nil
}

// ListByProfileID はプロフィールのアセスメント履歴を新しい順で返す。
func (r *PostgresAssessmentRepo) ListByProfileID(ctx context.Context, profileID string) ([]*model.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments a
		 WHERE a.profile_id = $1
		 ORDER BY a.created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var results []*model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ AssessmentRepository = (*PostgresAssessmentRepo)(nil)
