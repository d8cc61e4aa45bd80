package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/veyz1992/restohub/internal/middleware"
	"github.com/veyz1992/restohub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email string) error
	Verify(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error)
	IsAdmin(ctx context.Context, profileID string) bool
}

// ProfileWithdrawer は退会処理のインターフェース。
type ProfileWithdrawer interface {
	Withdraw(ctx context.Context, profileID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SiteURL       string // ログイン後のリダイレクト先となるフロントエンドURL
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はマジックリンク認証と自アカウント操作のHTTPハンドラー。
type AuthHandler struct {
	service    AuthServiceInterface
	withdrawer ProfileWithdrawer
	config     AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, withdrawer ProfileWithdrawer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:    service,
		withdrawer: withdrawer,
		config:     config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email string `json:"email"`
}

// profileResponse はプロフィール情報のAPIレスポンス。
type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	City        string `json:"city"`
	State       string `json:"state"`
	IsAdmin     bool   `json:"is_admin"`
}

// Login はマジックリンクの発行とメール送信を処理する。
// アカウントの存在を漏らさないため、未登録メールアドレスでも202を返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	if err := h.service.Login(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that email, a sign-in link has been sent.",
	})
}

// Verify はマジックリンクのトークンを検証し、セッションを確立する。
// メール内のリンクから直接開かれるため、成功時はダッシュボードへ、
// 失敗時はログインページへリダイレクトする。
// GET /api/auth/verify?token=xxx
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	session, err := h.service.Verify(r.Context(), token)
	if err != nil {
		slog.Warn("magic link verification failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.SiteURL+"/login?error=invalid_token", http.StatusTemporaryRedirect)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName(),
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.SiteURL+"/dashboard", http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。
// セッション削除に失敗してもCookieはクリアし、204を返す。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName())
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインプロフィールを管理者フラグ付きで返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName())
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	profile, err := h.service.GetCurrentProfile(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:          profile.ID,
		Email:       profile.Email,
		Name:        profile.Name,
		CompanyName: profile.CompanyName,
		City:        profile.City,
		State:       profile.State,
		IsAdmin:     h.service.IsAdmin(r.Context(), profile.ID),
	})
}

// Withdraw は自アカウントの退会処理を行う。
// プロフィールと関連データを削除し、セッションCookieをクリアする。
// DELETE /api/auth/me
func (h *AuthHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName())
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	profile, err := h.service.GetCurrentProfile(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.withdrawer.Withdraw(r.Context(), profile.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
