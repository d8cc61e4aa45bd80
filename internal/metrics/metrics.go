// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアと外部プロバイダー呼び出しの計装から利用する。
type MetricsCollector interface {
	RecordMagicLinkSent()
	RecordRemindersSent(count int)
	RecordCheckoutSessionCreated(plan string)
	RecordProviderError(provider string, step string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	magicLinksSent   prometheus.Counter
	remindersSent    prometheus.Counter
	checkoutSessions *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		magicLinksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restohub_magic_links_sent_total",
			Help: "送信されたマジックリンクメールの合計数",
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restohub_renewal_reminders_sent_total",
			Help: "送信された更新リマインダーメールの合計数",
		}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restohub_checkout_sessions_total",
			Help: "プラン別に作成されたチェックアウトセッションの合計数",
		}, []string{"plan"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restohub_provider_errors_total",
			Help: "外部プロバイダー呼び出しの失敗数（プロバイダー・ステップ別）",
		}, []string{"provider", "step"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restohub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.magicLinksSent,
		c.remindersSent,
		c.checkoutSessions,
		c.providerErrors,
		c.httpStatus,
	)

	return c
}

// RecordMagicLinkSent はマジックリンク送信を記録する。
func (c *Collector) RecordMagicLinkSent() {
	c.magicLinksSent.Inc()
}

// RecordRemindersSent は送信されたリマインダー数を記録する。
func (c *Collector) RecordRemindersSent(count int) {
	c.remindersSent.Add(float64(count))
}

// RecordCheckoutSessionCreated はチェックアウトセッション作成を記録する。
func (c *Collector) RecordCheckoutSessionCreated(plan string) {
	c.checkoutSessions.WithLabelValues(plan).Inc()
}

// RecordProviderError は外部プロバイダー呼び出しの失敗を記録する。
func (c *Collector) RecordProviderError(provider string, step string) {
	c.providerErrors.WithLabelValues(provider, step).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
