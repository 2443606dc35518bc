// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/liveclass/internal/gate"
	"github.com/hitoshi/liveclass/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// userContextKey はリクエストコンテキストにユーザーを格納するためのキー。
	userContextKey = contextKey("user")
)

// AuthResolver はリクエストの認証状態を解決するインターフェース。
// auth.Providerが実装する。
type AuthResolver interface {
	Resolve(r *http.Request) model.AuthState
}

// GateRecorder はゲート判定の記録に必要なインターフェース。
type GateRecorder interface {
	RecordGateDecision(decision string)
}

// AccessGateConfig はアクセスゲートミドルウェアの設定。
type AccessGateConfig struct {
	Gate *gate.Gate
	// JSON がtrueの場合、リダイレクトや待機の代わりにJSONのエラーを返す。
	JSON bool
	// Waiting は認証状態が未確定の場合に表示するページを書き込む。
	Waiting func(w io.Writer) error
	Metrics GateRecorder
	Logger  *slog.Logger
}

// NewAccessGateMiddleware は保護されたビューへのアクセスを判定するミドルウェアを返す。
//   - Allow: ユーザーをコンテキストに注入して次のハンドラーに委譲する
//   - Redirect: HTMLは307でログインへ遷移、JSONは401とLocationヘッダー
//   - Wait: 503とRetry-After。HTMLは自動で再読み込みする待機ページを返す
func NewAccessGateMiddleware(resolver AuthResolver, cfg AccessGateConfig) func(next http.Handler) http.Handler {
	g := cfg.Gate
	if g == nil {
		g = gate.New(gate.DefaultLoginPath)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Evaluate(resolver.Resolve(r))
			if cfg.Metrics != nil {
				cfg.Metrics.RecordGateDecision(decision.Outcome.String())
			}

			switch decision.Outcome {
			case gate.Allow:
				ctx := ContextWithUser(r.Context(), decision.User)
				next.ServeHTTP(w, r.WithContext(ctx))

			case gate.Redirect:
				w.Header().Set("Cache-Control", "no-store")
				if cfg.JSON {
					w.Header().Set("Location", decision.Location)
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
					return
				}
				// 307で遷移させ、保護されたURLを履歴に残さない
				http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)

			default:
				logger.Warn("auth state unknown, asking client to wait",
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Retry-After", "1")
				if cfg.JSON {
					WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewAuthStateUnknownError())
					return
				}
				writeWaiting(w, cfg.Waiting, logger)
			}
		})
	}
}

func writeWaiting(w http.ResponseWriter, render func(io.Writer) error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if render == nil {
		io.WriteString(w, "Loading live classes...")
		return
	}
	if err := render(w); err != nil {
		logger.Error("failed to render waiting page",
			slog.String("error", err.Error()),
		)
	}
}

// UserFromContext はリクエストコンテキストからユーザーを取得する。
// アクセスゲートを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// アクセスゲートを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUser はコンテキストにユーザーとユーザーIDを注入する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if user == nil {
		return ctx
	}
	setLoggedUserID(ctx, user.ID)
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, userIDContextKey, user.ID)
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
