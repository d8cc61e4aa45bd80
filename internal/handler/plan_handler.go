package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/plan"
)

// PlanHandler は会員プラン情報のHTTPハンドラー。
// プランテーブルは固定のため、サービス層を介さず直接参照する。
type PlanHandler struct{}

// NewPlanHandler はPlanHandlerを生成する。
func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// List は全プランの一覧を返す。
// GET /api/plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	slugs := plan.Slugs()
	results := make([]plan.Plan, len(slugs))
	for i, slug := range slugs {
		results[i] = plan.Lookup(slug)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get は指定スラッグのプランを返す。
// 未知のスラッグは既定プランに正規化されるため、常に200を返す。
// GET /api/plans/{slug}
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	writeJSON(w, http.StatusOK, plan.Lookup(slug))
}
