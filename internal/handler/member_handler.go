package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/member"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// MemberServiceInterface は会員ハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	List(ctx context.Context, filter repository.MemberFilter) ([]*model.Member, error)
	Get(ctx context.Context, id string) (*member.Detail, error)
	Update(ctx context.Context, id string, input member.UpdateInput) (*model.Member, error)
}

// MemberHandler は会員管理のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface) *MemberHandler {
	return &MemberHandler{service: service}
}

// updateMemberRequest は会員更新リクエストのボディ。空のフィールドは既存値を維持する。
type updateMemberRequest struct {
	Tier          string `json:"tier"`
	Status        string `json:"status"`
	Rating        string `json:"rating"`
	RenewalDate   string `json:"renewal_date"`
	BadgeStatus   string `json:"badge_status"`
	BadgeLabel    string `json:"badge_label"`
	BadgeImageURL string `json:"badge_image_url"`
}

// badgeResponse は会員バッジのAPIレスポンス。
type badgeResponse struct {
	Status   string `json:"status"`
	Label    string `json:"label"`
	ImageURL string `json:"image_url"`
}

// memberResponse は会員情報のAPIレスポンス。
type memberResponse struct {
	ID           string        `json:"id"`
	ProfileID    string        `json:"profile_id"`
	BusinessName string        `json:"business_name"`
	Tier         string        `json:"tier"`
	Rating       string        `json:"rating"`
	Status       string        `json:"status"`
	RenewalDate  string        `json:"renewal_date"`
	Badge        badgeResponse `json:"badge"`
	CreatedAt    time.Time     `json:"created_at"`
}

// memberDocumentResponse は提出書類のAPIレスポンス。
type memberDocumentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// memberDetailResponse は会員詳細のAPIレスポンス。
type memberDetailResponse struct {
	Member       memberResponse           `json:"member"`
	Documents    []memberDocumentResponse `json:"documents"`
	Subscription *subscriptionResponse    `json:"subscription"`
}

func toMemberResponse(m *model.Member) memberResponse {
	renewalDate := ""
	if !m.RenewalDate.IsZero() {
		renewalDate = m.RenewalDate.Format("2006-01-02")
	}
	return memberResponse{
		ID:           m.ID,
		ProfileID:    m.ProfileID,
		BusinessName: m.BusinessName,
		Tier:         string(m.Tier),
		Rating:       m.Rating,
		Status:       string(m.Status),
		RenewalDate:  renewalDate,
		Badge: badgeResponse{
			Status:   m.Badge.Status,
			Label:    m.Badge.Label,
			ImageURL: m.Badge.ImageURL,
		},
		CreatedAt: m.CreatedAt,
	}
}

// List は会員一覧を返す。
// GET /api/admin/members?search=&tier=&status=&sort_by=&order=
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members, err := h.service.List(r.Context(), repository.MemberFilter{
		Search: q.Get("search"),
		Tier:   q.Get("tier"),
		Status: q.Get("status"),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]memberResponse, len(members))
	for i, m := range members {
		results[i] = toMemberResponse(m)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get は会員詳細を提出書類・サブスクリプション付きで返す。
// GET /api/admin/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := memberDetailResponse{
		Member:    toMemberResponse(detail.Member),
		Documents: make([]memberDocumentResponse, len(detail.Documents)),
	}
	for i, d := range detail.Documents {
		resp.Documents[i] = memberDocumentResponse{
			ID:         d.ID,
			Name:       d.Name,
			URL:        d.URL,
			UploadedAt: d.UploadedAt,
		}
	}
	if detail.Subscription != nil {
		sub := toSubscriptionResponse(detail.Subscription, "")
		resp.Subscription = &sub
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update は会員情報の部分更新を処理する。
// PATCH /api/admin/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), member.UpdateInput{
		Tier:          req.Tier,
		Status:        req.Status,
		Rating:        req.Rating,
		RenewalDate:   req.RenewalDate,
		BadgeStatus:   req.BadgeStatus,
		BadgeLabel:    req.BadgeLabel,
		BadgeImageURL: req.BadgeImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberResponse(updated))
}
