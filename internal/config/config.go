package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/veyz1992/restohub/internal/plan"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Stripe
	StripeSecretKey string
	// PriceIDs はプランスラッグからStripe価格IDへのマッピング。
	PriceIDs map[string]string

	// Mail
	MailFrom  string
	AWSRegion string

	// Session / Magic Link
	SessionMaxAge  int
	MagicLinkTTL   time.Duration
	ResendCooldown time.Duration

	// Rate Limit
	RateLimitGeneral int

	// Worker
	CleanupInterval      time.Duration
	ReminderWindow       time.Duration
	ReminderInterval     time.Duration
	ReconcileInterval    time.Duration
	ReconcileAPIInterval time.Duration
	ReconcileMaxPerCycle int
	ReconcileStaleAfter  time.Duration

	// Server
	ServerPort string
	BaseURL    string

	// チェックアウトの成功/キャンセルURLを解決するフォールバックチェーン。
	// リクエスト自身のOrigin → SiteURL → DeployURL → BaseURL の順で使用する。
	SiteURL   string
	DeployURL string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は不足キーを列挙したエラーを返す。
// 外部クライアントの構築は一切行わない（fail closed）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}

	foundingPrice := os.Getenv("STRIPE_PRICE_FOUNDING_MEMBER")
	if foundingPrice == "" {
		missing = append(missing, "STRIPE_PRICE_FOUNDING_MEMBER")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		missing = append(missing, "MAIL_FROM")
	}

	if len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	// プランごとの価格ID。創設会員以外は任意。
	cfg.PriceIDs = map[string]string{
		plan.SlugFoundingMember: foundingPrice,
	}
	if v := os.Getenv("STRIPE_PRICE_GOLD"); v != "" {
		cfg.PriceIDs[plan.SlugGold] = v
	}
	if v := os.Getenv("STRIPE_PRICE_SILVER"); v != "" {
		cfg.PriceIDs[plan.SlugSilver] = v
	}
	if v := os.Getenv("STRIPE_PRICE_BRONZE"); v != "" {
		cfg.PriceIDs[plan.SlugBronze] = v
	}

	// Optional fields with defaults
	cfg.AWSRegion = getEnvString("AWS_REGION", "us-east-1")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.MagicLinkTTL = getEnvDuration("MAGIC_LINK_TTL", 15*time.Minute)
	cfg.ResendCooldown = getEnvDuration("RESEND_COOLDOWN", 60*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.ReminderWindow = getEnvDuration("REMINDER_WINDOW", 30*24*time.Hour)
	cfg.ReminderInterval = getEnvDuration("REMINDER_INTERVAL", 24*time.Hour)
	cfg.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", 1*time.Hour)
	cfg.ReconcileAPIInterval = getEnvDuration("RECONCILE_API_INTERVAL", 1*time.Second)
	cfg.ReconcileMaxPerCycle = getEnvInt("RECONCILE_MAX_PER_CYCLE", 100)
	cfg.ReconcileStaleAfter = getEnvDuration("RECONCILE_STALE_AFTER", 6*time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.SiteURL = getEnvString("SITE_URL", "")
	cfg.DeployURL = getEnvString("DEPLOY_URL", "")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// MissingEnvError は必須環境変数の不足を表す。
// 不足キーの一覧を保持し、設定エラーレスポンスのmissing配列に変換できる。
type MissingEnvError struct {
	Keys []string
}

// Error はerrorインターフェースを実装する。
func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variables are not set: %v", e.Keys)
}

// PriceIDFor は正規化済みプランスラッグに対応する価格IDを返す。
// 設定されていないプランの場合は空文字列を返す。
func (c *Config) PriceIDFor(slug string) string {
	return c.PriceIDs[plan.Normalize(slug)]
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
