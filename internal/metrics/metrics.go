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
// セッション取得クライアントやミドルウェアから利用する。
type MetricsCollector interface {
	RecordFetchSuccess(sessions int)
	RecordFetchFailure(kind string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordGateDecision(decision string)
	RecordCardsRendered(media string, count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess    prometheus.Counter
	fetchFail       *prometheus.CounterVec
	sessionsFetched prometheus.Counter
	httpStatus      *prometheus.CounterVec
	fetchLatency    prometheus.Histogram
	gateDecisions   *prometheus.CounterVec
	cardsRendered   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveclass_fetch_success_total",
			Help: "ライブセッション一覧取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveclass_fetch_fail_total",
			Help: "ライブセッション一覧取得失敗の合計数（失敗分類別）",
		}, []string{"kind"}),
		sessionsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveclass_sessions_fetched_total",
			Help: "取得したライブセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveclass_backend_http_status_total",
			Help: "バックエンドのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "liveclass_fetch_latency_seconds",
			Help:    "ライブセッション一覧取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveclass_gate_decisions_total",
			Help: "アクセスゲートの判定結果別の件数",
		}, []string{"decision"}),
		cardsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveclass_cards_rendered_total",
			Help: "描画したカードの件数（メディア種別別）",
		}, []string{"media"}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.sessionsFetched,
		c.httpStatus,
		c.fetchLatency,
		c.gateDecisions,
		c.cardsRendered,
	)

	return c
}

// RecordFetchSuccess は取得成功と取得件数を記録する。
func (c *Collector) RecordFetchSuccess(sessions int) {
	c.fetchSuccess.Inc()
	c.sessionsFetched.Add(float64(sessions))
}

// RecordFetchFailure は取得失敗を失敗分類ごとに記録する。
func (c *Collector) RecordFetchFailure(kind string) {
	c.fetchFail.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency は取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordGateDecision はアクセスゲートの判定結果を記録する。
func (c *Collector) RecordGateDecision(decision string) {
	c.gateDecisions.WithLabelValues(decision).Inc()
}

// RecordCardsRendered は描画したカード数を記録する。
func (c *Collector) RecordCardsRendered(media string, count int) {
	if count <= 0 {
		return
	}
	c.cardsRendered.WithLabelValues(media).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordFetchSuccess(int) {}
func (NopCollector) RecordFetchFailure(string) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordFetchLatency(time.Duration) {}
func (NopCollector) RecordGateDecision(string) {}
func (NopCollector) RecordCardsRendered(string, int) {}
