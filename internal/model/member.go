// Package model はドメインモデルを定義する。
package model

import "time"

// Tier は会員ランクを表す。
type Tier string

const (
	// TierBronze はブロンズ会員。
	TierBronze Tier = "Bronze"
	// TierSilver はシルバー会員。
	TierSilver Tier = "Silver"
	// TierGold はゴールド会員。
	TierGold Tier = "Gold"
	// TierFoundingMember は創設会員。
	TierFoundingMember Tier = "Founding Member"
)

// IsValidTier は会員ランクが定義済みのいずれかであるかを返す。
func IsValidTier(t string) bool {
	switch Tier(t) {
	case TierBronze, TierSilver, TierGold, TierFoundingMember:
		return true
	}
	return false
}

// MemberStatus は会員のライフサイクル状態を表す。
type MemberStatus string

const (
	// MemberStatusActive は有効な会員状態。
	MemberStatusActive MemberStatus = "Active"
	// MemberStatusPending は審査待ちの会員状態。
	MemberStatusPending MemberStatus = "Pending"
	// MemberStatusSuspended は停止中の会員状態。
	MemberStatusSuspended MemberStatus = "Suspended"
	// MemberStatusCanceled は解約済みの会員状態。
	MemberStatusCanceled MemberStatus = "Canceled"
)

// IsValidMemberStatus は会員状態が定義済みのいずれかであるかを返す。
func IsValidMemberStatus(s string) bool {
	switch MemberStatus(s) {
	case MemberStatusActive, MemberStatusPending, MemberStatusSuspended, MemberStatusCanceled:
		return true
	}
	return false
}

// validRatings は会員評価の固定セット（B+からA+まで）。
var validRatings = map[string]bool{
	"B+": true, "A-": true, "A": true, "A+": true,
}

// IsValidRating は会員評価が固定セットに含まれるかを返す。
func IsValidRating(r string) bool {
	return validRatings[r]
}

// Badge は会員バッジの表示情報を表す。
type Badge struct {
	Status   string
	Label    string
	ImageURL string
}

// Member は認定会員の事業者情報を表す。
type Member struct {
	ID           string
	ProfileID    string
	BusinessName string
	Tier         Tier
	Rating       string
	Status       MemberStatus
	RenewalDate  time.Time
	Badge        Badge
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MemberDocument は会員が提出した書類のメタデータを表す。
type MemberDocument struct {
	ID         string
	MemberID   string
	Name       string
	URL        string
	UploadedAt time.Time
}
