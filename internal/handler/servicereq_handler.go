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
	"github.com/veyz1992/restohub/internal/servicereq"
)

// ServiceRequestServiceInterface はサービスリクエストハンドラーが必要とするサービスインターフェース。
type ServiceRequestServiceInterface interface {
	List(ctx context.Context, filter repository.ServiceRequestFilter) ([]*model.ServiceRequest, error)
	Get(ctx context.Context, id string) (*model.ServiceRequest, []*model.ServiceRequestNote, error)
	Create(ctx context.Context, input servicereq.CreateInput) (*model.ServiceRequest, error)
	Update(ctx context.Context, id string, input servicereq.UpdateInput) (*model.ServiceRequest, error)
	AddNote(ctx context.Context, requestID, author, body string) (*model.ServiceRequestNote, error)
}

// ServiceRequestHandler はサービスリクエスト管理のHTTPハンドラー。
type ServiceRequestHandler struct {
	service ServiceRequestServiceInterface
}

// NewServiceRequestHandler はServiceRequestHandlerを生成する。
func NewServiceRequestHandler(service ServiceRequestServiceInterface) *ServiceRequestHandler {
	return &ServiceRequestHandler{service: service}
}

// createServiceRequestRequest はサービスリクエスト作成リクエストのボディ。
type createServiceRequestRequest struct {
	MemberID string `json:"member_id"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"due_date"`
}

// updateServiceRequestRequest はサービスリクエスト更新リクエストのボディ。
type updateServiceRequestRequest struct {
	Priority string `json:"priority"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"due_date"`
}

// addNoteRequest はメモ追加リクエストのボディ。
type addNoteRequest struct {
	Body string `json:"body"`
}

// serviceRequestResponse はサービスリクエストのAPIレスポンス。
type serviceRequestResponse struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee"`
	DueDate   string    `json:"due_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// serviceRequestNoteResponse はタイムラインメモのAPIレスポンス。
type serviceRequestNoteResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// serviceRequestDetailResponse はサービスリクエスト詳細のAPIレスポンス。
type serviceRequestDetailResponse struct {
	Request serviceRequestResponse       `json:"request"`
	Notes   []serviceRequestNoteResponse `json:"notes"`
}

func toServiceRequestResponse(req *model.ServiceRequest) serviceRequestResponse {
	dueDate := ""
	if req.DueDate != nil {
		dueDate = req.DueDate.Format("2006-01-02")
	}
	return serviceRequestResponse{
		ID:        req.ID,
		MemberID:  req.MemberID,
		Type:      req.Type,
		Priority:  string(req.Priority),
		Status:    string(req.Status),
		Assignee:  req.Assignee,
		DueDate:   dueDate,
		CreatedAt: req.CreatedAt,
	}
}

func toServiceRequestNoteResponse(note *model.ServiceRequestNote) serviceRequestNoteResponse {
	return serviceRequestNoteResponse{
		ID:        note.ID,
		Author:    note.Author,
		Body:      note.Body,
		CreatedAt: note.CreatedAt,
	}
}

// List はサービスリクエスト一覧を返す。
// GET /api/admin/service-requests?status=&priority=&assignee=
func (h *ServiceRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := h.service.List(r.Context(), repository.ServiceRequestFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Assignee: q.Get("assignee"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]serviceRequestResponse, len(requests))
	for i, req := range requests {
		results[i] = toServiceRequestResponse(req)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get はサービスリクエスト詳細をタイムラインメモ付きで返す。
// GET /api/admin/service-requests/{id}
func (h *ServiceRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	request, notes, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := serviceRequestDetailResponse{
		Request: toServiceRequestResponse(request),
		Notes:   make([]serviceRequestNoteResponse, len(notes)),
	}
	for i, note := range notes {
		resp.Notes[i] = toServiceRequestNoteResponse(note)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はサービスリクエスト作成を処理する。
// POST /api/admin/service-requests
func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	created, err := h.service.Create(r.Context(), servicereq.CreateInput{
		MemberID: req.MemberID,
		Type:     req.Type,
		Priority: req.Priority,
		Assignee: req.Assignee,
		DueDate:  req.DueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toServiceRequestResponse(created))
}

// Update はサービスリクエストの部分更新を処理する。
// PATCH /api/admin/service-requests/{id}
func (h *ServiceRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateServiceRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), servicereq.UpdateInput{
		Priority: req.Priority,
		Status:   req.Status,
		Assignee: req.Assignee,
		DueDate:  req.DueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceRequestResponse(updated))
}

// AddNote はタイムラインへのメモ追加を処理する。
// POST /api/admin/service-requests/{id}/notes
func (h *ServiceRequestHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	authorID, err := middleware.ProfileIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	note, err := h.service.AddNote(r.Context(), chi.URLParam(r, "id"), authorID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toServiceRequestNoteResponse(note))
}
