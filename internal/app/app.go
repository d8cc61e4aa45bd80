package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/veyz1992/restohub/internal/assessment"
	"github.com/veyz1992/restohub/internal/auth"
	"github.com/veyz1992/restohub/internal/billing"
	"github.com/veyz1992/restohub/internal/config"
	"github.com/veyz1992/restohub/internal/database"
	"github.com/veyz1992/restohub/internal/handler"
	"github.com/veyz1992/restohub/internal/logger"
	"github.com/veyz1992/restohub/internal/mailer"
	"github.com/veyz1992/restohub/internal/member"
	"github.com/veyz1992/restohub/internal/metrics"
	"github.com/veyz1992/restohub/internal/middleware"
	"github.com/veyz1992/restohub/internal/repository"
	"github.com/veyz1992/restohub/internal/security"
	"github.com/veyz1992/restohub/internal/servicereq"
	"github.com/veyz1992/restohub/internal/subscription"
	"github.com/veyz1992/restohub/internal/verification"
	"github.com/veyz1992/restohub/internal/worker/cleanup"
	"github.com/veyz1992/restohub/internal/worker/reminder"
)

// Init はアプリケーションの初期化を行う。
// .envファイル（存在する場合）と環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envファイルの読み込み（存在しない場合は無視）
	_ = godotenv.Load()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	profileRepo := repository.NewPostgresProfileRepo(db)
	assessmentRepo := repository.NewPostgresAssessmentRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	verificationRepo := repository.NewPostgresVerificationRepo(db)
	requestRepo := repository.NewPostgresServiceRequestRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 外部プロバイダーの初期化（計装付き）
	sesMailer, err := mailer.NewSESMailer(context.Background(), cfg.AWSRegion, cfg.MailFrom)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	mailerSvc := mailer.NewInstrumentedMailer(sesMailer, collector)

	gateway := billing.NewInstrumentedGateway(
		billing.NewStripeGateway(cfg.StripeSecretKey), collector,
	)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewInputSanitizer()

	authService := auth.NewService(
		profileRepo, tokenRepo, sessionRepo, adminRepo, mailerSvc,
		auth.ServiceConfig{
			SessionMaxAge:  cfg.SessionMaxAge,
			MagicLinkTTL:   cfg.MagicLinkTTL,
			ResendCooldown: cfg.ResendCooldown,
			BaseURL:        cfg.BaseURL,
		},
	)

	assessmentService := assessment.NewService(profileRepo, assessmentRepo, subRepo, sanitizer)

	checkoutService := billing.NewCheckoutService(profileRepo, assessmentRepo, gateway, billing.CheckoutConfig{
		PriceIDs:  cfg.PriceIDs,
		SiteURL:   cfg.SiteURL,
		DeployURL: cfg.DeployURL,
		BaseURL:   cfg.BaseURL,
	})

	provisionService := billing.NewProvisionService(profileRepo, memberRepo, subRepo, gateway)

	memberService := member.NewService(memberRepo, subRepo, profileRepo, sessionRepo)
	subService := subscription.NewService(subRepo)
	verificationService := verification.NewService(verificationRepo, memberRepo, sanitizer)
	requestService := servicereq.NewService(requestRepo, memberRepo, sanitizer)

	// 6. レート制限の構成（RATE_LIMIT_GENERALはreq/min単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// マジックリンククリック後のリダイレクト先。SITE_URL未設定時はBASE_URLを使う。
	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = cfg.BaseURL
	}

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		AdminChecker:      authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService: authService,
		Withdrawer:  memberService,
		AuthConfig: handler.AuthHandlerConfig{
			SiteURL:       siteURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		AssessmentService:   assessmentService,
		CheckoutService:     checkoutService,
		CheckoutProvisioner: provisionService,

		MemberService:         memberService,
		SubscriptionService:   subService,
		VerificationService:   verificationService,
		ServiceRequestService: requestService,
		AdminUserStore:        adminRepo,

		MetricsRecorder: collector,
		MetricsHandler:  metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// クリーンアップジョブと更新リマインダーをバックグラウンドで起動し、
// サブスクリプション照合ジョブをメインgoroutineで実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	profileRepo := repository.NewPostgresProfileRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	verificationRepo := repository.NewPostgresVerificationRepo(db)

	// 3. メトリクスと外部プロバイダーの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sesMailer, err := mailer.NewSESMailer(context.Background(), cfg.AWSRegion, cfg.MailFrom)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	mailerSvc := mailer.NewInstrumentedMailer(sesMailer, collector)

	gateway := billing.NewInstrumentedGateway(
		billing.NewStripeGateway(cfg.StripeSecretKey), collector,
	)

	// 4. ジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(tokenRepo, sessionRepo, verificationRepo, slog.Default())

	reminderCfg := reminder.DefaultConfig()
	reminderCfg.Window = cfg.ReminderWindow
	reminderJob := reminder.NewJob(memberRepo, profileRepo, mailerSvc, slog.Default(), reminderCfg)

	syncJob := billing.NewSyncJob(subRepo, gateway, slog.Default(), billing.SyncConfig{
		SyncInterval: cfg.ReconcileInterval,
		APIInterval:  cfg.ReconcileAPIInterval,
		MaxPerCycle:  cfg.ReconcileMaxPerCycle,
		StaleAfter:   cfg.ReconcileStaleAfter,
	})

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Duration("reminder_interval", cfg.ReminderInterval),
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	// クリーンアップと更新リマインダーをバックグラウンドで起動
	go cleanupJob.Start(ctx, cfg.CleanupInterval)
	go reminderJob.Start(ctx, cfg.ReminderInterval)

	// サブスクリプション照合ジョブをメインgoroutineで実行（ブロッキング）
	syncJob.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
