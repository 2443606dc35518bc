// Package auth はリクエストからナビゲーション判定用の認証状態を解決する。
// セッションの発行や更新は外部の認証サブシステムが担い、ここでは参照のみを行う。
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/liveclass/internal/model"
)

// SessionCookieName はログインセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Provider はセッションCookieから認証状態を解決する。
type Provider struct {
	sessions SessionFinder
	users    UserFinder
	logger   *slog.Logger
	timeout  time.Duration
}

// NewProvider はProviderを生成する。
// timeoutが0以下の場合はセッションストアへの問い合わせに期限を設けない。
func NewProvider(sessions SessionFinder, users UserFinder, logger *slog.Logger, timeout time.Duration) *Provider {
	return &Provider{
		sessions: sessions,
		users:    users,
		logger:   logger,
		timeout:  timeout,
	}
}

// Resolve はリクエストの認証状態を返す。
//   - セッションCookieが無い、または空: Unauthenticated
//   - セッションまたはユーザーが存在しない: Unauthenticated
//   - ストアへの問い合わせが失敗: Unknown（未認証とは区別する）
//   - それ以外: Authenticated(user)
func (p *Provider) Resolve(r *http.Request) model.AuthState {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return model.UnauthenticatedAuthState()
	}

	ctx := r.Context()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	session, err := p.sessions.FindByID(ctx, cookie.Value)
	if err != nil {
		p.logger.Error("failed to find session",
			slog.String("error", err.Error()),
		)
		return model.UnknownAuthState()
	}
	if session == nil {
		return model.UnauthenticatedAuthState()
	}

	user, err := p.users.FindByID(ctx, session.UserID)
	if err != nil {
		p.logger.Error("failed to find session user",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		return model.UnknownAuthState()
	}

	return model.AuthenticatedAuthState(user)
}
