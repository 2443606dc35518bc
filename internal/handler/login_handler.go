package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/hitoshi/liveclass/internal/middleware"
	"github.com/hitoshi/liveclass/internal/view"
)

// LoginHandler はログインページのHTTPハンドラー。
// 認証そのものは外部の認証サービスが担い、ここでは遷移先へのリンクを表示する。
type LoginHandler struct {
	pages        *view.Pages
	authLoginURL string
	logger       *slog.Logger
}

// NewLoginHandler はLoginHandlerを生成する。
func NewLoginHandler(pages *view.Pages, authLoginURL string, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{
		pages:        pages,
		authLoginURL: authLoginURL,
		logger:       logger,
	}
}

// Page はログインページを返す。
// GET /login
func (h *LoginHandler) Page(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.pages.RenderLogin(&buf, view.LoginPage{AuthLoginURL: h.authLoginURL}); err != nil {
		h.logger.Error("failed to render login page",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
