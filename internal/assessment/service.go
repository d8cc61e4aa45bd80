// Package assessment は事業者アセスメントの検証・採点・永続化と
// 入会資格の判定を提供する。
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/plan"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
)

// recentAssessmentWindow は再提出を資格なしとみなす期間。
const recentAssessmentWindow = 30 * 24 * time.Hour

// emailPattern は基本的なRFC形式のメールアドレスパターン。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubmitInput はアセスメント提出の入力。
type SubmitInput struct {
	Name               string
	Email              string
	CompanyName        string
	City               string
	State              string
	Answers            map[string]string
	Scores             model.AssessmentScores
	Grade              string // 空の場合は合計スコアから導出する
	Eligible           bool
	EligibilityReasons []string
	IntendedPlan       string
}

// SubmitResult はアセスメント提出の結果。
type SubmitResult struct {
	ProfileID    string `json:"profile_id"`
	AssessmentID string `json:"assessment_id"`
}

// EligibilityResult は入会資格判定の結果。
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// 資格なし理由の固定値。
const (
	ReasonMember           = "member"
	ReasonRecentAssessment = "recent-assessment"
)

// Service はアセスメントに関するビジネスロジックを提供する。
type Service struct {
	profileRepo    repository.ProfileRepository
	assessmentRepo repository.AssessmentRepository
	subRepo        repository.SubscriptionRepository
	sanitizer      security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	assessmentRepo repository.AssessmentRepository,
	subRepo repository.SubscriptionRepository,
	sanitizer security.InputSanitizerService,
) *Service {
	return &Service{
		profileRepo:    profileRepo,
		assessmentRepo: assessmentRepo,
		subRepo:        subRepo,
		sanitizer:      sanitizer,
	}
}

// Submit はアセスメントを検証し、プロフィールをupsertした上で
// 追記専用のアセスメント行を作成する。
// 同一メールアドレスからの再提出はプロフィールを更新し、新しい行を追加する。
// 検証に失敗した場合はDBへの書き込みを一切行わない。
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if details := validate(input); len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	// 自由記述はサニタイズしてから保存する
	answers := make(map[string]string, len(input.Answers))
	for k, v := range input.Answers {
		answers[s.sanitizer.SanitizeText(k)] = s.sanitizer.SanitizeText(v)
	}

	now := time.Now()
	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	if profile == nil {
		profile = &model.Profile{
			ID:          uuid.New().String(),
			Email:       email,
			Name:        s.sanitizer.SanitizeText(input.Name),
			CompanyName: s.sanitizer.SanitizeText(input.CompanyName),
			City:        s.sanitizer.SanitizeText(input.City),
			State:       input.State,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.profileRepo.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		slog.Info("profile created from assessment", slog.String("profile_id", profile.ID))
	} else {
		profile.Name = s.sanitizer.SanitizeText(input.Name)
		profile.CompanyName = s.sanitizer.SanitizeText(input.CompanyName)
		profile.City = s.sanitizer.SanitizeText(input.City)
		profile.State = input.State
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	grade := model.Grade(input.Grade)
	if input.Grade == "" {
		grade = DeriveGrade(input.Scores.Total())
	}

	assessment := &model.Assessment{
		ID:                 uuid.New().String(),
		ProfileID:          profile.ID,
		Answers:            answers,
		Scores:             input.Scores,
		TotalScore:         input.Scores.Total(),
		Grade:              grade,
		Eligible:           input.Eligible,
		EligibilityReasons: input.EligibilityReasons,
		IntendedPlan:       string(plan.Normalize(input.IntendedPlan)),
		CreatedAt:          now,
	}
	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	slog.Info("assessment saved",
		slog.String("assessment_id", assessment.ID),
		slog.String("profile_id", profile.ID),
		slog.Int("total_score", assessment.TotalScore),
		slog.String("grade", string(assessment.Grade)),
	)

	return &SubmitResult{
		ProfileID:    profile.ID,
		AssessmentID: assessment.ID,
	}, nil
}

// CheckEligibility は入会資格を判定する。
// 有効相当のサブスクリプションを持つ場合はmember、
// 30日以内のアセスメントがある場合はrecent-assessmentを理由として返す。
func (s *Service) CheckEligibility(ctx context.Context, email string) (*EligibilityResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !emailPattern.MatchString(email) {
		return nil, model.NewValidationError([]string{"email: valid email address is required"})
	}

	isMember, err := s.subRepo.HasActiveLikeByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscriptions: %w", err)
	}
	if isMember {
		return &EligibilityResult{Eligible: false, Reason: ReasonMember}, nil
	}

	latest, err := s.assessmentRepo.LatestByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest assessment: %w", err)
	}
	if latest != nil && time.Since(latest.CreatedAt) < recentAssessmentWindow {
		return &EligibilityResult{Eligible: false, Reason: ReasonRecentAssessment}, nil
	}

	return &EligibilityResult{Eligible: true}, nil
}

// DeriveGrade は合計スコア（0〜100）から評価を導出する。
func DeriveGrade(total int) model.Grade {
	switch {
	case total >= 85:
		return model.GradeA
	case total >= 70:
		return model.GradeB
	case total >= 50:
		return model.GradeC
	default:
		return model.GradeD
	}
}

// validate は入力を検証し、違反内容の一覧を返す。
// 最初の違反で打ち切らず、全ての違反を列挙する。
func validate(input SubmitInput) []string {
	var details []string

	if strings.TrimSpace(input.Name) == "" {
		details = append(details, "name: required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !emailPattern.MatchString(email) {
		details = append(details, "email: valid email address is required")
	}
	if !model.IsValidUSState(input.State) {
		details = append(details, "state: must be a valid US state code")
	}
	if strings.TrimSpace(input.City) == "" {
		details = append(details, "city: required")
	}
	if input.Grade != "" && !model.IsValidGrade(input.Grade) {
		details = append(details, "grade: must be one of A, B, C, D")
	}
	for _, sub := range []struct {
		name  string
		value int
	}{
		{"operations", input.Scores.Operations},
		{"certifications", input.Scores.Certifications},
		{"equipment", input.Scores.Equipment},
		{"insurance", input.Scores.Insurance},
		{"reputation", input.Scores.Reputation},
	} {
		if sub.value < 0 || sub.value > 20 {
			details = append(details, sub.name+": score must be between 0 and 20")
		}
	}

	return details
}
