package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/middleware"
	"github.com/veyz1992/restohub/internal/model"
)

// AdminUserStore は管理者ユーザーハンドラーが必要とする永続化インターフェース。
type AdminUserStore interface {
	List(ctx context.Context) ([]*model.AdminUser, error)
	Grant(ctx context.Context, profileID, role string) error
	Revoke(ctx context.Context, profileID string) error
}

// AdminUserHandler は管理者権限管理のHTTPハンドラー。
type AdminUserHandler struct {
	store AdminUserStore
}

// NewAdminUserHandler はAdminUserHandlerを生成する。
func NewAdminUserHandler(store AdminUserStore) *AdminUserHandler {
	return &AdminUserHandler{store: store}
}

// grantAdminRequest は管理者権限付与リクエストのボディ。
type grantAdminRequest struct {
	ProfileID string `json:"profile_id"`
	Role      string `json:"role"`
}

// adminUserResponse は管理者ユーザーのAPIレスポンス。
type adminUserResponse struct {
	ProfileID string    `json:"profile_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// List は管理者一覧を返す。
// GET /api/admin/users
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.store.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]adminUserResponse, len(admins))
	for i, a := range admins {
		results[i] = adminUserResponse{
			ProfileID: a.ProfileID,
			Role:      a.Role,
			CreatedAt: a.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// Grant は管理者権限の付与を処理する。既に付与済みの場合も成功を返す。
// POST /api/admin/users
func (h *AdminUserHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	if req.ProfileID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError([]string{"profile_id: is required"}))
		return
	}
	role := req.Role
	if role == "" {
		role = "admin"
	}

	if err := h.store.Grant(r.Context(), req.ProfileID, role); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Revoke は管理者権限の剥奪を処理する。
// DELETE /api/admin/users/{profileID}
func (h *AdminUserHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Revoke(r.Context(), chi.URLParam(r, "profileID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
