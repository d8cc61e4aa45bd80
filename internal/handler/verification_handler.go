package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/middleware"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/verification"
)

// VerificationServiceInterface は審査書類ハンドラーが必要とするサービスインターフェース。
type VerificationServiceInterface interface {
	List(ctx context.Context, filter repository.VerificationFilter) ([]*model.Verification, error)
	Review(ctx context.Context, id, reviewedBy string, input verification.ReviewInput) (*model.Verification, error)
	BulkApprove(ctx context.Context, ids []string, reviewedBy string) (*verification.BulkApproveResult, error)
	Submit(ctx context.Context, profileID string, input verification.SubmitInput) (*model.Verification, error)
}

// VerificationHandler は審査書類レビューのHTTPハンドラー。
type VerificationHandler struct {
	service VerificationServiceInterface
}

// NewVerificationHandler はVerificationHandlerを生成する。
func NewVerificationHandler(service VerificationServiceInterface) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// reviewRequest はレビュー更新リクエストのボディ。
type reviewRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// bulkApproveRequest は一括承認リクエストのボディ。
type bulkApproveRequest struct {
	IDs []string `json:"ids"`
}

// verificationResponse は審査書類のAPIレスポンス。
type verificationResponse struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member_id"`
	DocumentType string     `json:"document_type"`
	Status       string     `json:"status"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	Note         string     `json:"note"`
	ReviewedBy   string     `json:"reviewed_by"`
}

func toVerificationResponse(v *model.Verification) verificationResponse {
	return verificationResponse{
		ID:           v.ID,
		MemberID:     v.MemberID,
		DocumentType: v.DocumentType,
		Status:       string(v.Status),
		UploadedAt:   v.UploadedAt,
		ExpiresAt:    v.ExpiresAt,
		Note:         v.Note,
		ReviewedBy:   v.ReviewedBy,
	}
}

// submitRequest は書類提出リクエストのボディ。
type submitRequest struct {
	DocumentType string     `json:"document_type"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// Submit はログイン中の会員からの書類提出を処理する。
// POST /api/verifications
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	profileID, err := middleware.ProfileIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	created, err := h.service.Submit(r.Context(), profileID, verification.SubmitInput{
		DocumentType: req.DocumentType,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVerificationResponse(created))
}

// List は審査書類一覧を返す。
// GET /api/admin/verifications?status=&document_type=&member_id=
func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verifications, err := h.service.List(r.Context(), repository.VerificationFilter{
		Status:       q.Get("status"),
		DocumentType: q.Get("document_type"),
		MemberID:     q.Get("member_id"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]verificationResponse, len(verifications))
	for i, v := range verifications {
		results[i] = toVerificationResponse(v)
	}
	writeJSON(w, http.StatusOK, results)
}

// Review はレビュー結果の更新を処理する。
// PATCH /api/admin/verifications/{id}
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := middleware.ProfileIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	updated, err := h.service.Review(r.Context(), chi.URLParam(r, "id"), reviewerID, verification.ReviewInput{
		Status: req.Status,
		Note:   req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVerificationResponse(updated))
}

// BulkApprove は複数書類の一括承認を処理する。
// POST /api/admin/verifications/bulk-approve
func (h *VerificationHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := middleware.ProfileIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req bulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	result, err := h.service.BulkApprove(r.Context(), req.IDs, reviewerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
