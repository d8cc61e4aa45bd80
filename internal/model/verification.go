// Package model はドメインモデルを定義する。
package model

import "time"

// VerificationStatus は審査書類のレビュー状態を表す。
type VerificationStatus string

const (
	// VerificationStatusPending は審査待ち状態。
	VerificationStatusPending VerificationStatus = "Pending"
	// VerificationStatusApproved は承認済み状態。
	VerificationStatusApproved VerificationStatus = "Approved"
	// VerificationStatusRejected は却下状態。
	VerificationStatusRejected VerificationStatus = "Rejected"
	// VerificationStatusNeedsReplacement は差し替え要求状態。
	VerificationStatusNeedsReplacement VerificationStatus = "Needs Replacement"
	// VerificationStatusExpired は期限切れ状態。
	VerificationStatusExpired VerificationStatus = "Expired"
)

// IsValidVerificationStatus はレビュー状態が定義済みのいずれかであるかを返す。
func IsValidVerificationStatus(s string) bool {
	switch VerificationStatus(s) {
	case VerificationStatusPending, VerificationStatusApproved,
		VerificationStatusRejected, VerificationStatusNeedsReplacement,
		VerificationStatusExpired:
		return true
	}
	return false
}

// Verification は会員の審査書類を表す。
type Verification struct {
	ID           string
	MemberID     string
	DocumentType string
	Status       VerificationStatus
	UploadedAt   time.Time
	ExpiresAt    *time.Time
	Note         string
	ReviewedBy   string // レビューした管理者のプロフィールID。未レビューの場合は空。
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
