package servicereq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
)

type mockRequestRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.ServiceRequest, error)
	createFn   func(ctx context.Context, request *model.ServiceRequest) error
	updateFn   func(ctx context.Context, request *model.ServiceRequest) error
	addNoteFn  func(ctx context.Context, note *model.ServiceRequestNote) error
}

func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestRepo) Create(ctx context.Context, request *model.ServiceRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, request)
	}
	return nil
}

func (m *mockRequestRepo) List(_ context.Context, _ repository.ServiceRequestFilter) ([]*model.ServiceRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, request *model.ServiceRequest) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, request)
	}
	return nil
}

func (m *mockRequestRepo) AddNote(ctx context.Context, note *model.ServiceRequestNote) error {
	if m.addNoteFn != nil {
		return m.addNoteFn(ctx, note)
	}
	return nil
}

func (m *mockRequestRepo) ListNotes(_ context.Context, _ string) ([]*model.ServiceRequestNote, error) {
	return nil, nil
}

type mockMemberRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Member, error)
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMemberRepo) FindByProfileID(_ context.Context, _ string) (*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) Create(_ context.Context, _ *model.Member) error { return nil }

func (m *mockMemberRepo) List(_ context.Context, _ repository.MemberFilter) ([]*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) UpdateAdminFields(_ context.Context, _ *model.Member) error { return nil }

func (m *mockMemberRepo) ListDocuments(_ context.Context, _ string) ([]*model.MemberDocument, error) {
	return nil, nil
}

func (m *mockMemberRepo) ListDueForReminder(_ context.Context, _ time.Duration, _ int) ([]*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) MarkReminded(_ context.Context, _ string, _ time.Time) error { return nil }

func newTestService(r *mockRequestRepo, m *mockMemberRepo) *Service {
	return NewService(r, m, security.NewInputSanitizer())
}

func existingMember(_ context.Context, id string) (*model.Member, error) {
	return &model.Member{ID: id, BusinessName: "Restore Co"}, nil
}

// --- Create ---

func TestCreate_DefaultsToOpenMediumPriority(t *testing.T) {
	var created *model.ServiceRequest
	svc := newTestService(
		&mockRequestRepo{
			createFn: func(_ context.Context, r *model.ServiceRequest) error {
				created = r
				return nil
			},
		},
		&mockMemberRepo{findByIDFn: existingMember},
	)

	result, err := svc.Create(context.Background(), CreateInput{
		MemberID: "member-1",
		Type:     "Badge replacement",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("request was not persisted")
	}
	if result.Status != model.RequestStatusOpen {
		t.Errorf("Status = %s, want Open", result.Status)
	}
	if result.Priority != model.PriorityMedium {
		t.Errorf("Priority = %s, want Medium", result.Priority)
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockMemberRepo{findByIDFn: existingMember})

	_, err := svc.Create(context.Background(), CreateInput{
		Priority: "Critical",
		DueDate:  "next week",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
	if len(apiErr.Details) != 4 {
		t.Errorf("Details = %v, want 4 violations", apiErr.Details)
	}
}

func TestCreate_UnknownMember(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockMemberRepo{})

	_, err := svc.Create(context.Background(), CreateInput{
		MemberID: "member-unknown",
		Type:     "Badge replacement",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMemberNotFound {
		t.Fatalf("error = %v, want member not found", err)
	}
}

// --- Update ---

func TestUpdate_TransitionsStatus(t *testing.T) {
	var saved *model.ServiceRequest
	svc := newTestService(
		&mockRequestRepo{
			findByIDFn: func(_ context.Context, id string) (*model.ServiceRequest, error) {
				return &model.ServiceRequest{
					ID: id, Status: model.RequestStatusOpen, Priority: model.PriorityHigh,
				}, nil
			},
			updateFn: func(_ context.Context, r *model.ServiceRequest) error {
				saved = r
				return nil
			},
		},
		&mockMemberRepo{},
	)

	updated, err := svc.Update(context.Background(), "req-1", UpdateInput{
		Status:   "In Progress",
		Assignee: "Dana",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != model.RequestStatusInProgress {
		t.Errorf("Status = %s", updated.Status)
	}
	if updated.Priority != model.PriorityHigh {
		t.Errorf("Priority should be unchanged, got %s", updated.Priority)
	}
	if saved == nil || saved.Assignee != "Dana" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockMemberRepo{})

	_, err := svc.Update(context.Background(), "req-unknown", UpdateInput{Status: "Closed"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRequestNotFound {
		t.Fatalf("error = %v, want request not found", err)
	}
}

// --- AddNote ---

func TestAddNote_SanitizesBody(t *testing.T) {
	var saved *model.ServiceRequestNote
	svc := newTestService(
		&mockRequestRepo{
			findByIDFn: func(_ context.Context, id string) (*model.ServiceRequest, error) {
				return &model.ServiceRequest{ID: id}, nil
			},
			addNoteFn: func(_ context.Context, note *model.ServiceRequestNote) error {
				saved = note
				return nil
			},
		},
		&mockMemberRepo{},
	)

	note, err := svc.AddNote(context.Background(), "req-1", "admin-1",
		"<p>called member</p><script>bad()</script>")
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if note.Body != "<p>called member</p>" {
		t.Errorf("Body = %q", note.Body)
	}
	if saved == nil || saved.RequestID != "req-1" {
		t.Errorf("saved = %+v", saved)
	}
}

// サニタイズで空になった本文は拒否されること
func TestAddNote_EmptyAfterSanitize(t *testing.T) {
	svc := newTestService(&mockRequestRepo{}, &mockMemberRepo{})

	_, err := svc.AddNote(context.Background(), "req-1", "admin-1", "<script>only()</script>")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
}
