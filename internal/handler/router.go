package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/liveclass/internal/gate"
	"github.com/hitoshi/liveclass/internal/metrics"
	"github.com/hitoshi/liveclass/internal/middleware"
	"github.com/hitoshi/liveclass/internal/view"
	"github.com/prometheus/client_golang/prometheus"
)

// ルートのパス
const (
	LiveClassesPath    = "/live-classes"
	LiveClassesAPIPath = "/api/live-classes"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	AuthResolver      middleware.AuthResolver
	Gate              *gate.Gate
	RateLimiter       *middleware.RateLimiter
	LoginRateLimit    int // req/min/IP
	CORSAllowedOrigin string

	// ライブ授業一覧
	Loader   SessionLoader
	Renderer ViewRenderer
	Pages    *view.Pages

	// 計測
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// ログイン
	AuthLoginURL string

	Logger *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → (CORS: /api/*) → AccessGate → RateLimit(General)
//
// /health、/metrics、/static/*、ログインページはゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g := deps.Gate
	if g == nil {
		g = gate.New(gate.DefaultLoginPath)
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	liveClassHandler := NewLiveClassHandler(deps.Loader, deps.Renderer, deps.Pages, collector, logger)
	loginHandler := NewLoginHandler(deps.Pages, deps.AuthLoginURL, logger)

	waiting := func(w io.Writer) error {
		return deps.Pages.RenderWaiting(w, view.WaitingPage{})
	}

	// --- ゲート不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker, logger))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Handle("/static/*", view.StaticHandler())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LiveClassesPath, http.StatusTemporaryRedirect)
	})
	r.With(middleware.NewIPRateLimitMiddleware(deps.LoginRateLimit)).Get(g.LoginPath(), loginHandler.Page)

	// --- ゲートが必要なルート ---
	// ミドルウェアスタック: AccessGate(HTML) → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAccessGateMiddleware(deps.AuthResolver, middleware.AccessGateConfig{
			Gate:    g,
			Waiting: waiting,
			Metrics: collector,
			Logger:  logger,
		}))
		r.Use(rateLimiter.GeneralMiddleware())

		r.Get(LiveClassesPath, liveClassHandler.Page)
	})

	// ミドルウェアスタック: CORS → AccessGate(JSON) → RateLimit(General)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAccessGateMiddleware(deps.AuthResolver, middleware.AccessGateConfig{
				Gate:    g,
				JSON:    true,
				Metrics: collector,
				Logger:  logger,
			}))
			r.Use(rateLimiter.GeneralMiddleware())

			r.Get("/live-classes", liveClassHandler.List)
		})
	})

	return r
}
