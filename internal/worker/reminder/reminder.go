// Package reminder は会員更新期日のリマインダー送信ジョブを提供する。
// 更新期日が近づいた有効会員を取得し、並列制御しながら
// リマインダーメールを送信する。
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veyz1992/restohub/internal/mailer"
	"github.com/veyz1992/restohub/internal/model"
	"github.com/veyz1992/restohub/internal/repository"
)

// Config はリマインダージョブの設定。
type Config struct {
	Window         time.Duration // 更新期日の何日前から通知するか
	MaxPerCycle    int           // 1サイクルで処理する最大会員数
	MaxConcurrency int           // メール送信の最大並列数
}

// DefaultConfig はデフォルトのリマインダー設定を返す。
// 更新期日30日前から、1サイクル最大100件、並列数5で送信する。
func DefaultConfig() Config {
	return Config{
		Window:         30 * 24 * time.Hour,
		MaxPerCycle:    100,
		MaxConcurrency: 5,
	}
}

// Job は更新リマインダーの送信ジョブ。
// semaphoreパターンで最大並列数を制御しながらメールを送信する。
type Job struct {
	memberRepo  repository.MemberRepository
	profileRepo repository.ProfileRepository
	mailer      mailer.MailerService
	logger      *slog.Logger
	config      Config
}

// NewJob はJobの新しいインスタンスを生成する。
func NewJob(
	memberRepo repository.MemberRepository,
	profileRepo repository.ProfileRepository,
	mailerSvc mailer.MailerService,
	logger *slog.Logger,
	config Config,
) *Job {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	return &Job{
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		mailer:      mailerSvc,
		logger:      logger,
		config:      config,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("リマインダージョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", j.config.MaxConcurrency),
	)

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("リマインダーサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("リマインダージョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("リマインダーサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は通知対象会員を1回取得し、並列でリマインダーを送信する。
// 個々の会員の送信失敗はログに記録してスキップし、サイクル全体は継続する。
func (j *Job) RunOnce(ctx context.Context) error {
	start := time.Now()

	members, err := j.memberRepo.ListDueForReminder(ctx, j.config.Window, j.config.MaxPerCycle)
	if err != nil {
		return err
	}

	if len(members) == 0 {
		j.logger.Info("リマインダー対象の会員はありません")
		return nil
	}

	j.logger.Info("リマインダーサイクルを開始します",
		slog.Int("member_count", len(members)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, j.config.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for _, m := range members {
		wg.Add(1)
		sem <- struct{}{}

		go func(m *model.Member) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := j.remindOne(ctx, m); err != nil {
				j.logger.Error("リマインダーの送信に失敗しました",
					slog.String("member_id", m.ID),
					slog.String("error", err.Error()),
				)
				return
			}

			mu.Lock()
			sent++
			mu.Unlock()
		}(m)
	}

	wg.Wait()

	j.logger.Info("リマインダーサイクルが完了しました",
		slog.Int("sent", sent),
		slog.Int("failed", len(members)-sent),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// remindOne は1会員にリマインダーを送信し、送信日時を記録する。
func (j *Job) remindOne(ctx context.Context, m *model.Member) error {
	profile, err := j.profileRepo.FindByID(ctx, m.ProfileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return model.NewProfileNotFoundError()
	}

	renewalDate := m.RenewalDate.Format("2006-01-02")
	if err := j.mailer.SendRenewalReminder(ctx, profile.Email, m.BusinessName, renewalDate); err != nil {
		return err
	}

	return j.memberRepo.MarkReminded(ctx, m.ID, time.Now())
}
