package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veyz1992/restohub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	AdminChecker      middleware.AdminChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証・自アカウント操作
	AuthService AuthServiceInterface
	Withdrawer  ProfileWithdrawer
	AuthConfig  AuthHandlerConfig

	// 公開API
	AssessmentService   AssessmentServiceInterface
	CheckoutService     CheckoutServiceInterface
	CheckoutProvisioner CheckoutProvisionerInterface

	// 管理API
	MemberService         MemberServiceInterface
	SubscriptionService   SubscriptionServiceInterface
	VerificationService   VerificationServiceInterface
	ServiceRequestService ServiceRequestServiceInterface
	AdminUserStore        AdminUserStore

	// 運用エンドポイント
	MetricsRecorder middleware.HTTPStatusRecorder
	MetricsHandler  http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  → （公開ルート: RateLimit(Public)）
//	  → （会員ルート: Session → RateLimit(General)）
//	  → （管理ルート: Session → Admin → RateLimit(General)）
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Withdrawer, deps.AuthConfig)
	assessmentHandler := NewAssessmentHandler(deps.AssessmentService)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutService, deps.CheckoutProvisioner)
	planHandler := NewPlanHandler()
	memberHandler := NewMemberHandler(deps.MemberService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService)
	verificationHandler := NewVerificationHandler(deps.VerificationService)
	requestHandler := NewServiceRequestHandler(deps.ServiceRequestService)
	adminUserHandler := NewAdminUserHandler(deps.AdminUserStore)

	// --- 運用エンドポイント（レート制限なし） ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 公開ルート（IP単位のレート制限） ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.PublicMiddleware())

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Get("/verify", authHandler.Verify)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Delete("/me", authHandler.Withdraw)
		})

		r.Post("/api/assessments", assessmentHandler.Submit)
		r.Post("/api/eligibility/check", assessmentHandler.CheckEligibility)

		r.Route("/api/checkout", func(r chi.Router) {
			r.Post("/session", checkoutHandler.CreateSession)
			r.Post("/complete", checkoutHandler.Complete)
			r.Get("/session-email", checkoutHandler.SessionEmail)
		})

		r.Route("/api/plans", func(r chi.Router) {
			r.Get("/", planHandler.List)
			r.Get("/{slug}", planHandler.Get)
		})
	})

	// --- 会員ルート（要ログイン、管理者権限は不要） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/verifications", verificationHandler.Submit)
	})

	// --- 管理ルート ---
	// ミドルウェアスタック: Session → Admin → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewAdminMiddleware(deps.AdminChecker))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/admin", func(r chi.Router) {
			r.Route("/members", func(r chi.Router) {
				r.Get("/", memberHandler.List)
				r.Get("/{id}", memberHandler.Get)
				r.Patch("/{id}", memberHandler.Update)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", subHandler.List)
				r.Patch("/{id}", subHandler.Update)
			})

			r.Route("/verifications", func(r chi.Router) {
				r.Get("/", verificationHandler.List)
				r.Post("/bulk-approve", verificationHandler.BulkApprove)
				r.Patch("/{id}", verificationHandler.Review)
			})

			r.Route("/service-requests", func(r chi.Router) {
				r.Get("/", requestHandler.List)
				r.Post("/", requestHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", requestHandler.Get)
					r.Patch("/", requestHandler.Update)
					r.Post("/notes", requestHandler.AddNote)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminUserHandler.List)
				r.Post("/", adminUserHandler.Grant)
				r.Delete("/{profileID}", adminUserHandler.Revoke)
			})
		})
	})

	return r
}
