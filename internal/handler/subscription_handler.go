package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/subscription"
)

// SubscriptionServiceInterface はサブスクリプションハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	List(ctx context.Context, filter repository.SubscriptionFilter) (*subscription.ListResult, error)
	Update(ctx context.Context, id string, input subscription.UpdateInput) (*model.Subscription, error)
}

// SubscriptionHandler はサブスクリプション管理のHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// updateSubscriptionRequest はサブスクリプション更新リクエストのボディ。
type updateSubscriptionRequest struct {
	BillingCycle string `json:"billing_cycle"`
	Status       string `json:"status"`
}

// subscriptionResponse はサブスクリプション情報のAPIレスポンス。
type subscriptionResponse struct {
	ID               string    `json:"id"`
	MemberID         string    `json:"member_id"`
	Plan             string    `json:"plan"`
	PriceCents       int       `json:"price_cents"`
	BillingCycle     string    `json:"billing_cycle"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	ChurnRisk        string    `json:"churn_risk,omitempty"`
}

// subscriptionListResponse はサブスクリプション一覧と集計指標のAPIレスポンス。
type subscriptionListResponse struct {
	Subscriptions []subscriptionResponse `json:"subscriptions"`
	Metrics       subscription.Metrics   `json:"metrics"`
}

func toSubscriptionResponse(s *model.Subscription, churnRisk string) subscriptionResponse {
	return subscriptionResponse{
		ID:               s.ID,
		MemberID:         s.MemberID,
		Plan:             s.Plan,
		PriceCents:       s.PriceCents,
		BillingCycle:     string(s.BillingCycle),
		Status:           string(s.Status),
		CurrentPeriodEnd: s.CurrentPeriodEnd,
		ChurnRisk:        churnRisk,
	}
}

// List はサブスクリプション一覧を集計指標付きで返す。
// GET /api/admin/subscriptions?status=&plan=
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.List(r.Context(), repository.SubscriptionFilter{
		Status: q.Get("status"),
		Plan:   q.Get("plan"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := subscriptionListResponse{
		Subscriptions: make([]subscriptionResponse, len(result.Rows)),
		Metrics:       result.Metrics,
	}
	for i, row := range result.Rows {
		resp.Subscriptions[i] = toSubscriptionResponse(row.Subscription, row.ChurnRisk)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update はサブスクリプションの部分更新を処理する。
// PATCH /api/admin/subscriptions/{id}
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), subscription.UpdateInput{
		BillingCycle: req.BillingCycle,
		Status:       req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(updated, ""))
}
