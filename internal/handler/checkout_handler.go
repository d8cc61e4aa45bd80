package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/veyz1992/restohub/internal/billing"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	// CreateSession はサブスクリプション購入用のチェックアウトセッションを作成する。
	CreateSession(ctx context.Context, input billing.CheckoutInput) (*billing.CheckoutResult, error)
	// SessionEmail は完了したセッションに紐付くメールアドレスを返す。
	SessionEmail(ctx context.Context, sessionID string) (*billing.SessionEmailResult, error)
}

// CheckoutProvisionerInterface はチェックアウト完了処理のサービスインターフェース。
type CheckoutProvisionerInterface interface {
	// Complete はセッションを検証し、会員とサブスクリプションを払い出す。
	Complete(ctx context.Context, sessionID string) (*billing.ProvisionResult, error)
}

// CheckoutHandler はチェックアウトフローのHTTPハンドラー。
type CheckoutHandler struct {
	service     CheckoutServiceInterface
	provisioner CheckoutProvisionerInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface, provisioner CheckoutProvisionerInterface) *CheckoutHandler {
	return &CheckoutHandler{service: service, provisioner: provisioner}
}

// createCheckoutRequest はチェックアウトセッション作成リクエストのボディ。
type createCheckoutRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Plan    string `json:"plan"`
	PriceID string `json:"price_id"`
}

// CreateSession はチェックアウトセッション作成を処理する。
// POST /api/checkout/session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	result, err := h.service.CreateSession(r.Context(), billing.CheckoutInput{
		Email:   req.Email,
		Name:    req.Name,
		Plan:    req.Plan,
		PriceID: req.PriceID,
		Origin:  r.Header.Get("Origin"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// completeCheckoutRequest はチェックアウト完了リクエストのボディ。
type completeCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

// Complete はチェックアウト完了後の会員払い出しを処理する。冪等。
// POST /api/checkout/complete
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	result, err := h.provisioner.Complete(r.Context(), req.SessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SessionEmail は完了セッションのメールアドレス照会を処理する。
// ウェルカムページがログインフォームに事前入力するために使用する。
// GET /api/checkout/session-email?session_id=xxx
func (h *CheckoutHandler) SessionEmail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	result, err := h.service.SessionEmail(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
