// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// アクセス判定、バックエンドクライアント、認証、レート制限から利用する。
type MetricsCollector interface {
	RecordDecision(decision, reason string)
	ObserveBackendCall(endpoint string, statusCode int, duration time.Duration)
	RecordLogin(result string)
	RecordRateLimited(limitType string)
	RecordReferenceFallback(kind string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	decisions         *prometheus.CounterVec
	backendCalls      *prometheus.CounterVec
	backendLatency    *prometheus.HistogramVec
	logins            *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
	referenceFallback *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduportal_access_decisions_total",
			Help: "ログイン後のアクセス判定結果の合計数",
		}, []string{"decision", "reason"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduportal_backend_requests_total",
			Help: "バックエンドAPI呼び出しのエンドポイント・ステータス別合計数",
		}, []string{"endpoint", "status_code"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eduportal_backend_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduportal_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduportal_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limit_type"}),
		referenceFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduportal_reference_fallback_total",
			Help: "参照データ取得失敗による固定リスト使用回数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.decisions,
		c.backendCalls,
		c.backendLatency,
		c.logins,
		c.rateLimited,
		c.referenceFallback,
	)

	return c
}

// RecordDecision はアクセス判定結果を記録する。
func (c *Collector) RecordDecision(decision, reason string) {
	c.decisions.WithLabelValues(decision, reason).Inc()
}

// ObserveBackendCall はバックエンド呼び出しのステータスとレイテンシを記録する。
// 通信エラーでレスポンスがない場合はstatusCode=0として記録される。
func (c *Collector) ObserveBackendCall(endpoint string, statusCode int, duration time.Duration) {
	c.backendCalls.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果（success, rejected, unavailable, invalid）を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// RecordReferenceFallback は参照データの固定リスト使用を記録する。
func (c *Collector) RecordReferenceFallback(kind string) {
	c.referenceFallback.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
