// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーションエラーの場合はDetailsに違反項目を列挙する。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, billing, system
	Action   string   // ユーザー向け対処方法
	Details  []string // フィールド単位のバリデーション違反（省略可）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeResendCooldown       = "RESEND_COOLDOWN"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeMemberNotFound       = "MEMBER_NOT_FOUND"
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeVerificationNotFound = "VERIFICATION_NOT_FOUND"
	ErrCodeRequestNotFound      = "REQUEST_NOT_FOUND"
	ErrCodeSessionEmailMissing  = "SESSION_EMAIL_MISSING"
	ErrCodeCheckoutIncomplete   = "CHECKOUT_INCOMPLETE"
	ErrCodePaymentProvider      = "PAYMENT_PROVIDER_ERROR"
	ErrCodeMailProvider         = "MAIL_PROVIDER_ERROR"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
)

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError はフィールド単位の違反を列挙したバリデーションエラーを生成する。
func NewValidationError(details []string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "details に列挙された項目を修正してください。",
		Details:  details,
	}
}

// NewInvalidTokenError はログインリンクのトークンが無効な場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "ログインリンクが無効または期限切れです。",
		Category: "auth",
		Action:   "ログインリンクを再送信してください。",
	}
}

// NewResendCooldownError はログインリンクの再送クールダウン中のエラーを生成する。
func NewResendCooldownError(seconds int) *APIError {
	return &APIError{
		Code:     ErrCodeResendCooldown,
		Message:  fmt.Sprintf("ログインリンクの再送は%d秒間隔でのみ可能です。", seconds),
		Category: "auth",
		Action:   "しばらく待ってから再送してください。",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "プロフィールが見つかりません。",
		Category: "auth",
		Action:   "メールアドレスを確認してください。",
	}
}

// NewMemberNotFoundError は会員が見つからない場合のエラーを生成する。
func NewMemberNotFoundError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("指定された会員が見つかりません: %s", memberID),
		Category: "validation",
		Action:   "会員IDを確認してください。",
	}
}

// NewSubscriptionNotFoundError はサブスクリプションが見つからない場合のエラーを生成する。
func NewSubscriptionNotFoundError(subscriptionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  fmt.Sprintf("指定されたサブスクリプションが見つかりません: %s", subscriptionID),
		Category: "validation",
		Action:   "サブスクリプションIDを確認してください。",
	}
}

// NewVerificationNotFoundError は審査書類が見つからない場合のエラーを生成する。
func NewVerificationNotFoundError(verificationID string) *APIError {
	return &APIError{
		Code:     ErrCodeVerificationNotFound,
		Message:  fmt.Sprintf("指定された審査書類が見つかりません: %s", verificationID),
		Category: "validation",
		Action:   "書類IDを確認してください。",
	}
}

// NewRequestNotFoundError はサービスリクエストが見つからない場合のエラーを生成する。
func NewRequestNotFoundError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("指定されたサービスリクエストが見つかりません: %s", requestID),
		Category: "validation",
		Action:   "リクエストIDを確認してください。",
	}
}

// NewSessionEmailMissingError は決済セッションからメールアドレスが取得できない場合のエラーを生成する。
func NewSessionEmailMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionEmailMissing,
		Message:  "No email found in session",
		Category: "billing",
		Action:   "決済セッションIDを確認してください。",
	}
}

// NewCheckoutIncompleteError は決済が完了していないセッションに対する
// 会員払い出し要求のエラーを生成する。
func NewCheckoutIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodeCheckoutIncomplete,
		Message:  "決済が完了していません。",
		Category: "billing",
		Action:   "決済完了後に再度お試しください。",
	}
}

// NewPaymentProviderError は決済プロバイダー呼び出しの失敗を表すエラーを生成する。
// 生のプロバイダーエラーはログのみに残し、クライアントには固定コードを返す。
func NewPaymentProviderError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentProvider,
		Message:  "決済プロバイダーとの通信に失敗しました。",
		Category: "billing",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMailProviderError はメール送信の失敗を表すエラーを生成する。
func NewMailProviderError() *APIError {
	return &APIError{
		Code:     ErrCodeMailProvider,
		Message:  "メールの送信に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewForbiddenError は管理者権限がない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewUnauthorizedError は未認証の場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
