// Package auth はマジックリンク認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veyz1992/restohub/internal/mailer"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge  int           // セッション有効期間（秒）
	MagicLinkTTL   time.Duration // マジックリンクの有効期間
	ResendCooldown time.Duration // 同一メールアドレスへの再送間隔
	BaseURL        string        // 検証URLの組み立てに使用するベースURL
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	tokenRepo   repository.TokenRepository
	sessionRepo repository.SessionRepository
	adminRepo   repository.AdminRepository
	mailer      mailer.MailerService
	config      ServiceConfig

	// 再送クールダウンの管理。メールアドレス（小文字）→最終送信時刻。
	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	tokenRepo repository.TokenRepository,
	sessionRepo repository.SessionRepository,
	adminRepo repository.AdminRepository,
	mailerSvc mailer.MailerService,
	config ServiceConfig,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		sessionRepo: sessionRepo,
		adminRepo:   adminRepo,
		mailer:      mailerSvc,
		config:      config,
		lastSent:    make(map[string]time.Time),
	}
}

// Login はマジックリンクを発行してメール送信する。
// 登録済みメールアドレスかどうかに関わらず呼び出し元には成功を返し、
// アカウントの存在を推測されないようにする（未登録の場合は送信しない）。
// 同一メールアドレスへの連続送信はクールダウン期間中拒否される。
func (s *Service) Login(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.NewValidationError([]string{"valid email address is required"})
	}

	if retryAfter := s.checkCooldown(email); retryAfter > 0 {
		return model.NewResendCooldownError(int(retryAfter.Seconds()))
	}

	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find profile by email: %w", err)
	}
	if profile == nil {
		// 未登録メールアドレス。応答を変えずに送信だけスキップする。
		s.recordSent(email)
		slog.Info("magic link requested for unknown email")
		return nil
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate magic link token: %w", err)
	}

	now := time.Now()
	record := &model.MagicLinkToken{
		ID:        uuid.New().String(),
		ProfileID: profile.ID,
		Token:     token,
		ExpiresAt: now.Add(s.config.MagicLinkTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to save magic link token: %w", err)
	}

	verifyURL := s.config.BaseURL + "/api/auth/verify?token=" + url.QueryEscape(token)
	if err := s.mailer.SendMagicLink(ctx, profile.Email, verifyURL); err != nil {
		slog.Error("failed to send magic link email",
			slog.String("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
		return model.NewMailProviderError()
	}

	s.recordSent(email)
	slog.Info("magic link sent", slog.String("profile_id", profile.ID))
	return nil
}

// Verify はマジックリンクトークンを検証・消費し、セッションを発行する。
// トークンは一度しか使えない。期限切れ・消費済み・未知のトークンは全て同じ扱い。
func (s *Service) Verify(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.NewInvalidTokenError()
	}

	profileID, err := s.tokenRepo.Consume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link token: %w", err)
	}
	if profileID == "" {
		return nil, model.NewInvalidTokenError()
	}

	session, err := s.createSession(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("magic link verified", slog.String("profile_id", profileID))
	return session, nil
}

// Logout はセッションを破棄する。
// セッションが存在しない場合も成功扱いとする。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentProfile はセッションから現在のプロフィールを取得する。
func (s *Service) GetCurrentProfile(ctx context.Context, sessionID string) (*model.Profile, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	profile, err := s.profileRepo.FindByID(ctx, session.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError()
	}

	return profile, nil
}

// IsAdmin はプロフィールが管理者権限を持つかを返す。
// 判定に失敗した場合は権限なしとして扱う（フェイルクローズ）。
func (s *Service) IsAdmin(ctx context.Context, profileID string) bool {
	ok, err := s.adminRepo.IsAdmin(ctx, profileID)
	if err != nil {
		slog.Error("failed to check admin role",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

// checkCooldown はクールダウン中の場合、残り時間を返す。
func (s *Service) checkCooldown(email string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastSent[email]
	if !ok {
		return 0
	}
	elapsed := time.Since(last)
	if elapsed < s.config.ResendCooldown {
		return s.config.ResendCooldown - elapsed
	}
	return 0
}

// recordSent は送信時刻を記録する。期限切れエントリも同時に掃除する。
func (s *Service) recordSent(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, v := range s.lastSent {
		if now.Sub(v) > s.config.ResendCooldown {
			delete(s.lastSent, k)
		}
	}
	s.lastSent[email] = now
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, profileID string) (*model.Session, error) {
	sessionID, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		ProfileID: profileID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateToken は暗号的に安全なランダムトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
