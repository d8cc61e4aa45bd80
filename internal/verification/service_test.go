package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
)

type mockVerificationRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Verification, error)
	createFn        func(ctx context.Context, verification *model.Verification) error
	updateReviewFn  func(ctx context.Context, id string, status model.VerificationStatus, note, reviewedBy string) error
	countInStatusFn func(ctx context.Context, ids []string, status model.VerificationStatus) (int, error)
	approveAllFn    func(ctx context.Context, ids []string, reviewedBy string) (int, error)
}

func (m *mockVerificationRepo) FindByID(ctx context.Context, id string) (*model.Verification, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockVerificationRepo) Create(ctx context.Context, verification *model.Verification) error {
	if m.createFn != nil {
		return m.createFn(ctx, verification)
	}
	return nil
}

func (m *mockVerificationRepo) List(_ context.Context, _ repository.VerificationFilter) ([]*model.Verification, error) {
	return nil, nil
}

func (m *mockVerificationRepo) UpdateReview(ctx context.Context, id string, status model.VerificationStatus, note, reviewedBy string) error {
	if m.updateReviewFn != nil {
		return m.updateReviewFn(ctx, id, status, note, reviewedBy)
	}
	return nil
}

func (m *mockVerificationRepo) CountInStatus(ctx context.Context, ids []string, status model.VerificationStatus) (int, error) {
	if m.countInStatusFn != nil {
		return m.countInStatusFn(ctx, ids, status)
	}
	return 0, nil
}

func (m *mockVerificationRepo) ApproveAll(ctx context.Context, ids []string, reviewedBy string) (int, error) {
	if m.approveAllFn != nil {
		return m.approveAllFn(ctx, ids, reviewedBy)
	}
	return len(ids), nil
}

func (m *mockVerificationRepo) ExpireOverdue(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type mockMemberRepo struct {
	findByProfileIDFn func(ctx context.Context, profileID string) (*model.Member, error)
}

func (m *mockMemberRepo) FindByID(_ context.Context, _ string) (*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) FindByProfileID(ctx context.Context, profileID string) (*model.Member, error) {
	if m.findByProfileIDFn != nil {
		return m.findByProfileIDFn(ctx, profileID)
	}
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

func newTestService(repo *mockVerificationRepo) *Service {
	return NewService(repo, &mockMemberRepo{}, security.NewInputSanitizer())
}

// --- Submit ---

// 提出された書類がレビュー待ちで作成されること
func TestSubmit_CreatesPendingVerification(t *testing.T) {
	var created *model.Verification
	repo := &mockVerificationRepo{
		createFn: func(_ context.Context, v *model.Verification) error {
			created = v
			return nil
		},
	}
	members := &mockMemberRepo{
		findByProfileIDFn: func(_ context.Context, profileID string) (*model.Member, error) {
			if profileID != "profile-1" {
				t.Errorf("profileID = %q", profileID)
			}
			return &model.Member{ID: "member-1", ProfileID: profileID}, nil
		},
	}

	svc := NewService(repo, members, security.NewInputSanitizer())
	result, err := svc.Submit(context.Background(), "profile-1", SubmitInput{
		DocumentType: `Business License<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if created == nil {
		t.Fatal("verification was not created")
	}
	if created.MemberID != "member-1" {
		t.Errorf("MemberID = %q", created.MemberID)
	}
	if created.Status != model.VerificationStatusPending {
		t.Errorf("Status = %s, want Pending", created.Status)
	}
	if created.DocumentType != "Business License" {
		t.Errorf("document type not sanitized: %q", created.DocumentType)
	}
	if result.ID == "" {
		t.Error("ID must be set")
	}
}

func TestSubmit_WithoutMember(t *testing.T) {
	svc := NewService(&mockVerificationRepo{}, &mockMemberRepo{}, security.NewInputSanitizer())

	_, err := svc.Submit(context.Background(), "profile-unknown", SubmitInput{DocumentType: "Business License"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMemberNotFound {
		t.Fatalf("error = %v, want member not found", err)
	}
}

func TestSubmit_EmptyDocumentType(t *testing.T) {
	svc := newTestService(&mockVerificationRepo{})

	_, err := svc.Submit(context.Background(), "profile-1", SubmitInput{DocumentType: "  "})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestSubmit_PastExpiry(t *testing.T) {
	svc := newTestService(&mockVerificationRepo{})

	past := time.Now().Add(-24 * time.Hour)
	_, err := svc.Submit(context.Background(), "profile-1", SubmitInput{
		DocumentType: "Business License",
		ExpiresAt:    &past,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
}

// --- Review ---

func TestReview_UpdatesStatusAndSanitizesNote(t *testing.T) {
	var gotStatus model.VerificationStatus
	var gotNote string

	repo := &mockVerificationRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Verification, error) {
			return &model.Verification{ID: id, Status: model.VerificationStatusPending}, nil
		},
		updateReviewFn: func(_ context.Context, _ string, status model.VerificationStatus, note, _ string) error {
			gotStatus = status
			gotNote = note
			return nil
		},
	}

	svc := newTestService(repo)
	_, err := svc.Review(context.Background(), "v1", "admin-1", ReviewInput{
		Status: "Approved",
		Note:   `looks good<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if gotStatus != model.VerificationStatusApproved {
		t.Errorf("status = %s", gotStatus)
	}
	if gotNote != "looks good" {
		t.Errorf("note not sanitized: %q", gotNote)
	}
}

func TestReview_InvalidStatus(t *testing.T) {
	svc := newTestService(&mockVerificationRepo{})

	_, err := svc.Review(context.Background(), "v1", "admin-1", ReviewInput{Status: "Maybe"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestReview_NotFound(t *testing.T) {
	svc := newTestService(&mockVerificationRepo{})

	_, err := svc.Review(context.Background(), "v-unknown", "admin-1", ReviewInput{Status: "Approved"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeVerificationNotFound {
		t.Fatalf("error = %v, want verification not found", err)
	}
}

// --- BulkApprove ---

// 承認済み件数を承認前に数え、メッセージに反映すること
func TestBulkApprove_CountsAlreadyApproved(t *testing.T) {
	var callOrder []string

	repo := &mockVerificationRepo{
		countInStatusFn: func(_ context.Context, ids []string, status model.VerificationStatus) (int, error) {
			callOrder = append(callOrder, "count")
			if status != model.VerificationStatusApproved {
				t.Errorf("status = %s", status)
			}
			return 1, nil
		},
		approveAllFn: func(_ context.Context, ids []string, _ string) (int, error) {
			callOrder = append(callOrder, "approve")
			return len(ids), nil
		},
	}

	svc := newTestService(repo)
	result, err := svc.BulkApprove(context.Background(), []string{"v1", "v2", "v3"}, "admin-1")
	if err != nil {
		t.Fatalf("BulkApprove() error = %v", err)
	}
	if len(callOrder) != 2 || callOrder[0] != "count" || callOrder[1] != "approve" {
		t.Errorf("callOrder = %v, count must run before approve", callOrder)
	}
	if result.Approved != 3 || result.AlreadyApproved != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Message != "3 approved. (1 were already approved.)" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestBulkApprove_EmptyIDs(t *testing.T) {
	svc := newTestService(&mockVerificationRepo{})

	_, err := svc.BulkApprove(context.Background(), nil, "admin-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
}
