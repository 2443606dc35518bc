// Package livesession はバックエンドからライブセッション一覧を取得する。
// ビューの表示ごとに1回だけ取得を行う状態機械（Activation）を含む。
package livesession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/liveclass/internal/metrics"
	"github.com/hitoshi/liveclass/internal/model"
)

const (
	// SessionsPath はライブセッション一覧APIのパス。
	SessionsPath = "/api/live/sessions/"
	// DefaultMaxBodySize はレスポンスボディの最大サイズ（1MB）。
	DefaultMaxBodySize int64 = 1 << 20
	// nullBearer は認証トークンが無い場合に送るBearer値。
	nullBearer = "null"

	tracerName = "github.com/hitoshi/liveclass/internal/livesession"
)

// NewHTTPClient はOpenTelemetryで計装したHTTPクライアントを生成する。
// timeoutはリクエスト全体（ボディ読み取りを含む）の上限となる。
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Client はライブセッション一覧APIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	endpoint    string // テスト用にエンドポイントを差し替え可能
	metrics     metrics.MetricsCollector
	maxBodySize int64
	tracer      trace.Tracer
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointはSessionsPathまでを含む完全なURL。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string, m metrics.MetricsCollector, maxBodySize int64) *Client {
	if m == nil {
		m = metrics.NopCollector{}
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		endpoint:    endpoint,
		metrics:     m,
		maxBodySize: maxBodySize,
		tracer:      otel.Tracer(tracerName),
	}
}

// Fetch はライブセッション一覧を取得する。
// 認証トークンが無い場合もリクエストは送信し、拒否はバックエンドに任せる。
// 失敗時は常に*model.FetchErrorを返す。
func (c *Client) Fetch(ctx context.Context, token string, hasToken bool) (model.SessionList, error) {
	ctx, span := c.tracer.Start(ctx, "livesession.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("liveclass.endpoint", c.endpoint),
			attribute.Bool("liveclass.has_credential", hasToken),
		),
	)
	defer span.End()

	start := time.Now()
	list, err := c.fetch(ctx, token, hasToken)
	duration := time.Since(start)
	c.metrics.RecordFetchLatency(duration)

	logger := c.logger.With(
		slog.String("activation_id", ActivationIDFromContext(ctx)),
		slog.String("endpoint", c.endpoint),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)

	if err != nil {
		attrs := []any{
			slog.String("error_kind", string(err.Kind)),
			slog.String("error", err.Error()),
		}
		if err.StatusCode != 0 {
			attrs = append(attrs, slog.Int("http_status", err.StatusCode))
		}
		logger.Warn("failed to fetch live sessions", attrs...)
		c.metrics.RecordFetchFailure(string(err.Kind))
		span.SetAttributes(attribute.String("liveclass.error_kind", string(err.Kind)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Info("live sessions fetched",
		slog.Int("session_count", len(list)),
	)
	c.metrics.RecordFetchSuccess(len(list))
	span.SetAttributes(attribute.Int("liveclass.session_count", len(list)))
	return list, nil
}

func (c *Client) fetch(ctx context.Context, token string, hasToken bool) (model.SessionList, *model.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &model.FetchError{
			Kind: model.FetchErrorNetwork,
			Err:  fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err),
		}
	}

	bearer := nullBearer
	if hasToken && token != "" {
		bearer = token
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{Kind: model.FetchErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 接続を再利用できるようにボディを読み捨てる
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &model.FetchError{
			Kind:       model.FetchErrorResponse,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &model.FetchError{
			Kind: model.FetchErrorNetwork,
			Err:  fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err),
		}
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, &model.FetchError{
			Kind: model.FetchErrorDataShape,
			Err:  fmt.Errorf("レスポンスボディが上限 %d バイトを超えています", c.maxBodySize),
		}
	}

	list, err := DecodeSessionList(body)
	if err != nil {
		return nil, &model.FetchError{Kind: model.FetchErrorDataShape, Err: err}
	}
	return list, nil
}

// DecodeSessionList はレスポンスボディをSessionListとして検証しつつデコードする。
// 配列でない、要素がオブジェクトでない、idが無い、
// idが重複している、またはフィールドの型が不正な場合はエラーを返す。
// live_platformが無いかnullの要素は空のPlatformとして扱う。
func DecodeSessionList(body []byte) (model.SessionList, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("レスポンスがJSON配列ではありません")
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	list := make(model.SessionList, 0, len(raws))
	seen := make(map[int64]struct{}, len(raws))
	for i, raw := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("要素 %d がオブジェクトではありません", i)
		}
		if !present(fields, "id") {
			return nil, fmt.Errorf("要素 %d に id がありません", i)
		}

		var s model.LiveSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("要素 %d のデコードに失敗しました: %w", i, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("id %d が重複しています", s.ID)
		}
		seen[s.ID] = struct{}{}
		list = append(list, s)
	}
	return list, nil
}

func present(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	return ok && string(v) != "null"
}
