package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/veyz1992/restohub/internal/model"
)

func TestPostgresProfileRepo_FindByEmail_CaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "email", "name", "company_name", "city", "state",
		"stripe_customer_id", "created_at", "updated_at",
	}).AddRow("profile-1", "owner@example.com", "Jo Restore", "Restore Co", "Austin", "TX", "", now, now)

	// lower()同士の比較がSQLに含まれること
	mock.ExpectQuery(`lower\(email\) = lower\(\$1\)`).
		WithArgs("Owner@Example.COM").
		WillReturnRows(rows)

	repo := NewPostgresProfileRepo(db)
	p, err := repo.FindByEmail(context.Background(), "Owner@Example.COM")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if p == nil {
		t.Fatal("expected profile, got nil")
	}
	if p.Email != "owner@example.com" {
		t.Errorf("Email = %q", p.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresProfileRepo_FindByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewPostgresProfileRepo(db)
	p, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if p != nil {
		t.Errorf("expected nil profile, got %+v", p)
	}
}

// 作成時にメールアドレスが小文字に正規化されること
func TestPostgresProfileRepo_Create_LowercasesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
		WithArgs("profile-1", "owner@example.com", "Jo Restore", "Restore Co", "Austin", "TX", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresProfileRepo(db)
	err = repo.Create(context.Background(), &model.Profile{
		ID:          "profile-1",
		Email:       "Owner@Example.COM",
		Name:        "Jo Restore",
		CompanyName: "Restore Co",
		City:        "Austin",
		State:       "TX",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 存在しないプロフィールの更新はエラーになること
func TestPostgresProfileRepo_Update_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE profiles`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresProfileRepo(db)
	err = repo.Update(context.Background(), &model.Profile{ID: "missing"})
	if err == nil {
		t.Fatal("expected error for missing profile")
	}
}

// compile-time interface check
func TestPostgresProfileRepo_ImplementsInterface(t *testing.T) {
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
}
