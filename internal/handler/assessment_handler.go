package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/veyz1992/restohub/internal/assessment"
	"github.com/veyz1992/restohub/internal/model"
)

// AssessmentServiceInterface はアセスメントハンドラーが必要とするサービスインターフェース。
type AssessmentServiceInterface interface {
	// Submit はアセスメントを検証・採点し、プロフィールとともに保存する。
	Submit(ctx context.Context, input assessment.SubmitInput) (*assessment.SubmitResult, error)
	// CheckEligibility はメールアドレスの入会資格を判定する。
	CheckEligibility(ctx context.Context, email string) (*assessment.EligibilityResult, error)
}

// AssessmentHandler はアセスメント提出・資格判定のHTTPハンドラー。
type AssessmentHandler struct {
	service AssessmentServiceInterface
}

// NewAssessmentHandler はAssessmentHandlerを生成する。
func NewAssessmentHandler(service AssessmentServiceInterface) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// submitAssessmentRequest はアセスメント提出リクエストのボディ。
type submitAssessmentRequest struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	CompanyName string            `json:"company_name"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	Answers     map[string]string `json:"answers"`
	Scores      assessmentScores  `json:"scores"`
	Grade       string            `json:"grade"`
	Eligible    bool              `json:"eligible"`
	Reasons     []string          `json:"eligibility_reasons"`
	Plan        string            `json:"intended_plan"`
}

// assessmentScores は5項目スコアのリクエスト表現。
type assessmentScores struct {
	Operations     int `json:"operations"`
	Certifications int `json:"certifications"`
	Equipment      int `json:"equipment"`
	Insurance      int `json:"insurance"`
	Reputation     int `json:"reputation"`
}

// eligibilityRequest は資格判定リクエストのボディ。
type eligibilityRequest struct {
	Email string `json:"email"`
}

// Submit はアセスメント提出を処理する。
// POST /api/assessments
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	result, err := h.service.Submit(r.Context(), assessment.SubmitInput{
		Name:        req.Name,
		Email:       req.Email,
		CompanyName: req.CompanyName,
		City:        req.City,
		State:       req.State,
		Answers:     req.Answers,
		Scores: model.AssessmentScores{
			Operations:     req.Scores.Operations,
			Certifications: req.Scores.Certifications,
			Equipment:      req.Scores.Equipment,
			Insurance:      req.Scores.Insurance,
			Reputation:     req.Scores.Reputation,
		},
		Grade:              req.Grade,
		Eligible:           req.Eligible,
		EligibilityReasons: req.Reasons,
		IntendedPlan:       req.Plan,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// CheckEligibility は入会資格の判定を処理する。
// POST /api/eligibility/check
func (h *AssessmentHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	result, err := h.service.CheckEligibility(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
