package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// SyncConfig はサブスクリプション照合ジョブの設定パラメータ。
// 環境変数から設定可能。
type SyncConfig struct {
	// SyncInterval はジョブの実行間隔（デフォルト: 30分）。
	SyncInterval time.Duration
	// APIInterval はAPI呼び出しの最低間隔（デフォルト: 1秒）。
	APIInterval time.Duration
	// MaxPerCycle は1サイクルあたりの最大照合件数（デフォルト: 100）。
	MaxPerCycle int
	// StaleAfter は再照合までの猶予期間（デフォルト: 24時間）。
	StaleAfter time.Duration
}

// DefaultSyncConfig はデフォルトの照合ジョブ設定を返す。
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		SyncInterval: 30 * time.Minute,
		APIInterval:  time.Second,
		MaxPerCycle:  100,
		StaleAfter:   24 * time.Hour,
	}
}

// SyncJob はローカルのサブスクリプション状態を決済プロバイダーと照合するジョブ。
// 照合日時が古い行を対象に、API呼び出し間隔と1サイクル上限を守りながら
// プロバイダーの状態・期間終了日時を取り込む。
type SyncJob struct {
	subRepo repository.SubscriptionRepository
	gateway Gateway
	logger  *slog.Logger
	config  SyncConfig
}

// NewSyncJob はSyncJobの新しいインスタンスを生成する。
func NewSyncJob(
	subRepo repository.SubscriptionRepository,
	gateway Gateway,
	logger *slog.Logger,
	config SyncConfig,
) *SyncJob {
	return &SyncJob{
		subRepo: subRepo,
		gateway: gateway,
		logger:  logger,
		config:  config,
	}
}

// Start は照合ジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *SyncJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.config.SyncInterval)
	defer ticker.Stop()

	j.logger.Info("subscription sync job started",
		slog.Duration("sync_interval", j.config.SyncInterval),
		slog.Duration("api_interval", j.config.APIInterval),
		slog.Int("max_per_cycle", j.config.MaxPerCycle),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("subscription sync cycle failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("subscription sync job stopped")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("subscription sync cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce は1回の照合サイクルを実行する。
// 個別の照合失敗はログに残してスキップし、サイクル全体は継続する。
func (j *SyncJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	stale, err := j.subRepo.ListStale(ctx, j.config.StaleAfter, j.config.MaxPerCycle)
	if err != nil {
		return fmt.Errorf("failed to list stale subscriptions: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	j.logger.Info("subscription sync cycle started", slog.Int("target_count", len(stale)))

	var synced, failed int
	for i, sub := range stale {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// API呼び出しインターバル（初回は待たない）
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(j.config.APIInterval):
			}
		}

		if err := j.syncOne(ctx, sub); err != nil {
			failed++
			j.logger.Error("failed to sync subscription",
				slog.String("subscription_id", sub.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		synced++
	}

	j.logger.Info("subscription sync cycle finished",
		slog.Int("synced", synced),
		slog.Int("failed", failed),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (j *SyncJob) syncOne(ctx context.Context, sub *model.Subscription) error {
	provider, err := j.gateway.GetSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to fetch provider subscription: %w", err)
	}

	status, ok := mapProviderStatus(provider.Status)
	if !ok {
		j.logger.Warn("unknown provider subscription status",
			slog.String("subscription_id", sub.ID),
			slog.String("provider_status", provider.Status),
		)
		status = sub.Status
	}

	if err := j.subRepo.UpdateProviderState(ctx, sub.ID, status, provider.CurrentPeriodEnd, time.Now()); err != nil {
		return fmt.Errorf("failed to update provider state: %w", err)
	}
	return nil
}

// mapProviderStatus はプロバイダーの状態文字列をローカルの状態に変換する。
// 未知の状態はfalseを返す。
func mapProviderStatus(providerStatus string) (model.SubscriptionStatus, bool) {
	switch providerStatus {
	case "active":
		return model.SubscriptionStatusActive, true
	case "trialing":
		return model.SubscriptionStatusTrialing, true
	case "past_due":
		return model.SubscriptionStatusPastDue, true
	case "canceled", "unpaid", "incomplete_expired":
		return model.SubscriptionStatusCanceled, true
	default:
		return "", false
	}
}
