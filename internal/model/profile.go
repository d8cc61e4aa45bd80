// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はサービス利用者のプロフィールを表す。
// メールアドレス（小文字に正規化して保存）が一意キー。
// 初回のアセスメント提出またはチェックアウトで作成され、
// 同一メールアドレスの再提出では上書き更新される。
type Profile struct {
	ID               string
	Email            string
	Name             string
	CompanyName      string
	City             string
	State            string
	StripeCustomerID string // 未作成の場合は空文字列
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session はログインセッションを表す。
type Session struct {
	ID        string
	ProfileID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// MagicLinkToken はパスワードレスログイン用のワンタイムトークンを表す。
// 一度消費されたトークンは再利用できない。
type MagicLinkToken struct {
	ID         string
	ProfileID  string
	Token      string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// AdminUser は管理者権限の付与を表す。
// admin_usersテーブルに行が存在すること自体が管理者フラグとなる。
type AdminUser struct {
	ProfileID string
	Role      string
	CreatedAt time.Time
}
