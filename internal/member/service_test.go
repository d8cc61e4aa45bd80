package member

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// --- モック定義 ---

type mockMemberRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Member, error)
	listFn              func(ctx context.Context, filter repository.MemberFilter) ([]*model.Member, error)
	updateAdminFieldsFn func(ctx context.Context, member *model.Member) error
	listDocumentsFn     func(ctx context.Context, memberID string) ([]*model.MemberDocument, error)
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

func (m *mockMemberRepo) List(ctx context.Context, filter repository.MemberFilter) ([]*model.Member, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockMemberRepo) UpdateAdminFields(ctx context.Context, member *model.Member) error {
	if m.updateAdminFieldsFn != nil {
		return m.updateAdminFieldsFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) ListDocuments(ctx context.Context, memberID string) ([]*model.MemberDocument, error) {
	if m.listDocumentsFn != nil {
		return m.listDocumentsFn(ctx, memberID)
	}
	return nil, nil
}

func (m *mockMemberRepo) ListDueForReminder(_ context.Context, _ time.Duration, _ int) ([]*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) MarkReminded(_ context.Context, _ string, _ time.Time) error { return nil }

type mockSubRepo struct {
	findByMemberIDFn func(ctx context.Context, memberID string) (*model.Subscription, error)
}

func (m *mockSubRepo) FindByID(_ context.Context, _ string) (*model.Subscription, error) {
	return nil, nil
}

func (m *mockSubRepo) FindByMemberID(ctx context.Context, memberID string) (*model.Subscription, error) {
	if m.findByMemberIDFn != nil {
		return m.findByMemberIDFn(ctx, memberID)
	}
	return nil, nil
}

func (m *mockSubRepo) Create(_ context.Context, _ *model.Subscription) error { return nil }

func (m *mockSubRepo) List(_ context.Context, _ repository.SubscriptionFilter) ([]*model.Subscription, error) {
	return nil, nil
}

func (m *mockSubRepo) HasActiveLikeByEmail(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockSubRepo) UpdateAdminFields(_ context.Context, _ string, _ model.BillingCycle, _ model.SubscriptionStatus) error {
	return nil
}

func (m *mockSubRepo) UpdateProviderState(_ context.Context, _ string, _ model.SubscriptionStatus, _, _ time.Time) error {
	return nil
}

func (m *mockSubRepo) ListStale(_ context.Context, _ time.Duration, _ int) ([]*model.Subscription, error) {
	return nil, nil
}

type mockProfileRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Profile, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProfileRepo) FindByEmail(_ context.Context, _ string) (*model.Profile, error) {
	return nil, nil
}

func (m *mockProfileRepo) Create(_ context.Context, _ *model.Profile) error         { return nil }
func (m *mockProfileRepo) Update(_ context.Context, _ *model.Profile) error         { return nil }
func (m *mockProfileRepo) SetStripeCustomerID(_ context.Context, _, _ string) error { return nil }

func (m *mockProfileRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByProfileIDFn func(ctx context.Context, profileID string) error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(_ context.Context, _ string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func (m *mockSessionRepo) DeleteByProfileID(ctx context.Context, profileID string) error {
	if m.deleteByProfileIDFn != nil {
		return m.deleteByProfileIDFn(ctx, profileID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func activeMember() *model.Member {
	return &model.Member{
		ID:           "member-1",
		ProfileID:    "profile-1",
		BusinessName: "Restore Co",
		Tier:         model.TierGold,
		Rating:       "A",
		Status:       model.MemberStatusActive,
		RenewalDate:  time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- Get ---

func TestGet_WithDocumentsAndSubscription(t *testing.T) {
	svc := NewService(
		&mockMemberRepo{
			findByIDFn: func(_ context.Context, id string) (*model.Member, error) {
				return activeMember(), nil
			},
			listDocumentsFn: func(_ context.Context, _ string) ([]*model.MemberDocument, error) {
				return []*model.MemberDocument{{ID: "doc-1", MemberID: "member-1", Name: "General Liability"}}, nil
			},
		},
		&mockSubRepo{
			findByMemberIDFn: func(_ context.Context, _ string) (*model.Subscription, error) {
				return &model.Subscription{ID: "sub-1", MemberID: "member-1"}, nil
			},
		},
		&mockProfileRepo{},
		&mockSessionRepo{},
	)

	detail, err := svc.Get(context.Background(), "member-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.Member.BusinessName != "Restore Co" {
		t.Errorf("BusinessName = %q", detail.Member.BusinessName)
	}
	if len(detail.Documents) != 1 || detail.Documents[0].ID != "doc-1" {
		t.Errorf("Documents = %+v", detail.Documents)
	}
	if detail.Subscription == nil || detail.Subscription.ID != "sub-1" {
		t.Errorf("Subscription = %+v", detail.Subscription)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockMemberRepo{}, &mockSubRepo{}, &mockProfileRepo{}, &mockSessionRepo{})

	_, err := svc.Get(context.Background(), "member-unknown")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMemberNotFound {
		t.Fatalf("error = %v, want member not found", err)
	}
}

// --- Update ---

func TestUpdate_PartialFieldsKeepExisting(t *testing.T) {
	var saved *model.Member
	svc := NewService(
		&mockMemberRepo{
			findByIDFn: func(_ context.Context, _ string) (*model.Member, error) {
				return activeMember(), nil
			},
			updateAdminFieldsFn: func(_ context.Context, member *model.Member) error {
				saved = member
				return nil
			},
		},
		&mockSubRepo{}, &mockProfileRepo{}, &mockSessionRepo{},
	)

	updated, err := svc.Update(context.Background(), "member-1", UpdateInput{
		Status: "Suspended",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != model.MemberStatusSuspended {
		t.Errorf("Status = %s", updated.Status)
	}
	if updated.Tier != model.TierGold {
		t.Errorf("Tier should be unchanged, got %s", updated.Tier)
	}
	if saved == nil {
		t.Error("member was not persisted")
	}
}

func TestUpdate_InvalidValuesRejected(t *testing.T) {
	persisted := false
	svc := NewService(
		&mockMemberRepo{
			findByIDFn: func(_ context.Context, _ string) (*model.Member, error) {
				return activeMember(), nil
			},
			updateAdminFieldsFn: func(_ context.Context, _ *model.Member) error {
				persisted = true
				return nil
			},
		},
		&mockSubRepo{}, &mockProfileRepo{}, &mockSessionRepo{},
	)

	_, err := svc.Update(context.Background(), "member-1", UpdateInput{
		Tier:        "Platinum",
		Rating:      "F",
		RenewalDate: "03/01/2027",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want validation error", err)
	}
	if len(apiErr.Details) != 3 {
		t.Errorf("Details = %v, want 3 violations", apiErr.Details)
	}
	if persisted {
		t.Error("invalid update must not be persisted")
	}
}

// --- Withdraw ---

// 退会はセッション削除→プロフィール削除の順で行われること
func TestWithdraw_DeletesSessionsThenProfile(t *testing.T) {
	var order []string
	svc := NewService(
		&mockMemberRepo{}, &mockSubRepo{},
		&mockProfileRepo{
			findByIDFn: func(_ context.Context, _ string) (*model.Profile, error) {
				return &model.Profile{ID: "profile-1"}, nil
			},
			deleteByIDFn: func(_ context.Context, _ string) error {
				order = append(order, "profile")
				return nil
			},
		},
		&mockSessionRepo{
			deleteByProfileIDFn: func(_ context.Context, _ string) error {
				order = append(order, "sessions")
				return nil
			},
		},
	)

	if err := svc.Withdraw(context.Background(), "profile-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if len(order) != 2 || order[0] != "sessions" || order[1] != "profile" {
		t.Errorf("order = %v", order)
	}
}

func TestWithdraw_UnknownProfile(t *testing.T) {
	svc := NewService(&mockMemberRepo{}, &mockSubRepo{}, &mockProfileRepo{}, &mockSessionRepo{})

	err := svc.Withdraw(context.Background(), "profile-unknown")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Fatalf("error = %v, want profile not found", err)
	}
}
