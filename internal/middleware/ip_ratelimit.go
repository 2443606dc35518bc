package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/hitoshi/liveclass/internal/model"
)

// NewIPRateLimitMiddleware はクライアントIPごとに1分あたりのリクエスト数を制限するミドルウェアを返す。
// 未認証でも到達できるルート（ログインページ）に使用する。
// perMinuteが0以下の場合は制限しない。
func NewIPRateLimitMiddleware(perMinute int) func(next http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
		}),
	)
}
