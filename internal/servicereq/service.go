// Package servicereq は会員サービスリクエストの管理ドメインロジックを提供する。
package servicereq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
)

// CreateInput はサービスリクエスト作成の入力。
type CreateInput struct {
	MemberID string
	Type     string
	Priority string
	Assignee string
	DueDate  string // YYYY-MM-DD、省略可
}

// UpdateInput はサービスリクエスト更新の入力。
// 空のフィールドは既存値を維持する。
type UpdateInput struct {
	Priority string
	Status   string
	Assignee string
	DueDate  string // YYYY-MM-DD
}

// Service はサービスリクエストのサービス層。
type Service struct {
	requestRepo repository.ServiceRequestRepository
	memberRepo  repository.MemberRepository
	sanitizer   security.InputSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	requestRepo repository.ServiceRequestRepository,
	memberRepo repository.MemberRepository,
	sanitizer security.InputSanitizerService,
) *Service {
	return &Service{
		requestRepo: requestRepo,
		memberRepo:  memberRepo,
		sanitizer:   sanitizer,
	}
}

// List は絞り込み条件を適用したサービスリクエスト一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.ServiceRequestFilter) ([]*model.ServiceRequest, error) {
	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	return requests, nil
}

// Get はサービスリクエストをメモ付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ServiceRequest, []*model.ServiceRequestNote, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find service request: %w", err)
	}
	if request == nil {
		return nil, nil, model.NewRequestNotFoundError(id)
	}

	notes, err := s.requestRepo.ListNotes(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list service request notes: %w", err)
	}
	return request, notes, nil
}

// Create はサービスリクエストを作成する。新規リクエストはOpen状態で始まる。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.ServiceRequest, error) {
	var details []string
	if strings.TrimSpace(input.MemberID) == "" {
		details = append(details, "member_id: required")
	}
	if strings.TrimSpace(input.Type) == "" {
		details = append(details, "type: required")
	}
	priority := model.PriorityMedium
	if input.Priority != "" {
		if !model.IsValidRequestPriority(input.Priority) {
			details = append(details, "priority: must be one of Low, Medium, High, Urgent")
		} else {
			priority = model.RequestPriority(input.Priority)
		}
	}
	var dueDate *time.Time
	if input.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", input.DueDate)
		if err != nil {
			details = append(details, "due_date: must be formatted as YYYY-MM-DD")
		} else {
			dueDate = &parsed
		}
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	member, err := s.memberRepo.FindByID(ctx, input.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(input.MemberID)
	}

	now := time.Now()
	request := &model.ServiceRequest{
		ID:        uuid.New().String(),
		MemberID:  input.MemberID,
		Type:      s.sanitizer.SanitizeText(input.Type),
		Priority:  priority,
		Status:    model.RequestStatusOpen,
		Assignee:  s.sanitizer.SanitizeText(input.Assignee),
		DueDate:   dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create service request: %w", err)
	}

	slog.Info("service request created",
		slog.String("request_id", request.ID),
		slog.String("member_id", request.MemberID),
		slog.String("priority", string(request.Priority)),
	)
	return request, nil
}

// Update は進行状態・優先度・担当者・期日を更新する。
// 指定されなかった項目は既存値を維持する。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.ServiceRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(id)
	}

	var details []string
	if input.Priority != "" {
		if !model.IsValidRequestPriority(input.Priority) {
			details = append(details, "priority: must be one of Low, Medium, High, Urgent")
		} else {
			request.Priority = model.RequestPriority(input.Priority)
		}
	}
	if input.Status != "" {
		if !model.IsValidRequestStatus(input.Status) {
			details = append(details, "status: must be one of Open, In Progress, Resolved, Closed")
		} else {
			request.Status = model.RequestStatus(input.Status)
		}
	}
	if input.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", input.DueDate)
		if err != nil {
			details = append(details, "due_date: must be formatted as YYYY-MM-DD")
		} else {
			request.DueDate = &parsed
		}
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	if input.Assignee != "" {
		request.Assignee = s.sanitizer.SanitizeText(input.Assignee)
	}

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update service request: %w", err)
	}

	slog.Info("service request updated",
		slog.String("request_id", request.ID),
		slog.String("status", string(request.Status)),
	)
	return request, nil
}

// AddNote はタイムラインにメモを追加する。本文は保存前にサニタイズされる。
func (s *Service) AddNote(ctx context.Context, requestID, author, body string) (*model.ServiceRequestNote, error) {
	body = s.sanitizer.SanitizeNote(body)
	if body == "" {
		return nil, model.NewValidationError([]string{"body: required"})
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}

	note := &model.ServiceRequestNote{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.requestRepo.AddNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to add service request note: %w", err)
	}

	slog.Info("service request note added",
		slog.String("request_id", requestID),
		slog.String("note_id", note.ID),
	)
	return note, nil
}
