// Package cleanup は認証・審査データの自動整理ジョブを提供する。
// 期限切れのマジックリンクトークンとセッションの削除、および
// 有効期限を過ぎた審査書類のExpired遷移を日次バッチで行う。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veyz1992/restohub/internal/repository"
)

// CleanupJob は期限切れデータの自動整理ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な処理を保証する。
type CleanupJob struct {
	tokenRepo        repository.TokenRepository
	sessionRepo      repository.SessionRepository
	verificationRepo repository.VerificationRepository
	logger           *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(
	tokenRepo repository.TokenRepository,
	sessionRepo repository.SessionRepository,
	verificationRepo repository.VerificationRepository,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		tokenRepo:        tokenRepo,
		sessionRepo:      sessionRepo,
		verificationRepo: verificationRepo,
		logger:           logger,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run は期限切れデータの整理を1回実行する。
// 冪等: 対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	now := time.Now()

	deletedTokens, err := j.tokenRepo.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	deletedSessions, err := j.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	expiredVerifications, err := j.verificationRepo.ExpireOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to expire overdue verifications: %w", err)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int("deleted_tokens", deletedTokens),
		slog.Int("deleted_sessions", deletedSessions),
		slog.Int("expired_verifications", expiredVerifications),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
