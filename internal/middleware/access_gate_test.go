package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/liveclass/internal/gate"
	"github.com/hitoshi/liveclass/internal/model"
)

// --- モック定義 ---

type mockResolver struct {
	resolveFn func(r *http.Request) model.AuthState
}

func (m *mockResolver) Resolve(r *http.Request) model.AuthState {
	if m.resolveFn != nil {
		return m.resolveFn(r)
	}
	return model.UnauthenticatedAuthState()
}

func resolverReturning(state model.AuthState) *mockResolver {
	return &mockResolver{resolveFn: func(r *http.Request) model.AuthState { return state }}
}

type mockGateRecorder struct {
	decisions []string
}

func (m *mockGateRecorder) RecordGateDecision(decision string) {
	m.decisions = append(m.decisions, decision)
}

func newGateTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

// --- テスト ---

func TestAccessGate_Authenticated_InjectsUserAndDelegates(t *testing.T) {
	user := &model.User{ID: "user-123", Name: "A. Smith"}
	rec := &mockGateRecorder{}
	mw := NewAccessGateMiddleware(resolverReturning(model.AuthenticatedAuthState(user)), AccessGateConfig{
		Metrics: rec,
	})

	var gotUser *model.User
	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if gotUser != user {
		t.Errorf("user = %+v, want %+v", gotUser, user)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-123")
	}
	if len(rec.decisions) != 1 || rec.decisions[0] != "allow" {
		t.Errorf("decisions = %v, want [allow]", rec.decisions)
	}
}

func TestAccessGate_Unauthenticated_HTML_RedirectsToLogin(t *testing.T) {
	rec := &mockGateRecorder{}
	mw := NewAccessGateMiddleware(resolverReturning(model.UnauthenticatedAuthState()), AccessGateConfig{
		Gate:    gate.New("/login"),
		Metrics: rec,
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if len(rec.decisions) != 1 || rec.decisions[0] != "redirect" {
		t.Errorf("decisions = %v, want [redirect]", rec.decisions)
	}
}

func TestAccessGate_Unauthenticated_JSON_Returns401WithLocation(t *testing.T) {
	mw := NewAccessGateMiddleware(resolverReturning(model.UnauthenticatedAuthState()), AccessGateConfig{
		Gate: gate.New("/signin"),
		JSON: true,
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/live-classes", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/signin" {
		t.Errorf("Location = %q, want /signin", loc)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthenticated)
	}
}

func TestAccessGate_Unknown_HTML_RendersWaitingPage(t *testing.T) {
	var buf bytes.Buffer
	rec := &mockGateRecorder{}
	mw := NewAccessGateMiddleware(resolverReturning(model.UnknownAuthState()), AccessGateConfig{
		Waiting: func(w io.Writer) error {
			_, err := io.WriteString(w, "<p>waiting</p>")
			return err
		},
		Metrics: rec,
		Logger:  newGateTestLogger(&buf),
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "1" {
		t.Errorf("Retry-After = %q, want 1", ra)
	}
	if loc := w.Header().Get("Location"); loc != "" {
		t.Errorf("未確定時にリダイレクトしてはならない: Location = %q", loc)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if w.Body.String() != "<p>waiting</p>" {
		t.Errorf("body = %q", w.Body.String())
	}
	if len(rec.decisions) != 1 || rec.decisions[0] != "wait" {
		t.Errorf("decisions = %v, want [wait]", rec.decisions)
	}
}

func TestAccessGate_Unknown_HTML_WithoutRenderer_WritesText(t *testing.T) {
	var buf bytes.Buffer
	mw := NewAccessGateMiddleware(resolverReturning(model.UnknownAuthState()), AccessGateConfig{
		Logger: newGateTestLogger(&buf),
	})

	w := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

	if !strings.Contains(w.Body.String(), "Loading live classes...") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestAccessGate_Unknown_WaitingRenderError_IsLogged(t *testing.T) {
	var buf bytes.Buffer
	mw := NewAccessGateMiddleware(resolverReturning(model.UnknownAuthState()), AccessGateConfig{
		Waiting: func(w io.Writer) error { return errors.New("template broken") },
		Logger:  newGateTestLogger(&buf),
	})

	w := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(buf.String(), "failed to render waiting page") {
		t.Errorf("描画エラーがログに出力されていない: %s", buf.String())
	}
}

func TestAccessGate_Unknown_JSON_Returns503(t *testing.T) {
	var buf bytes.Buffer
	mw := NewAccessGateMiddleware(resolverReturning(model.UnknownAuthState()), AccessGateConfig{
		JSON:   true,
		Logger: newGateTestLogger(&buf),
	})

	w := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/live-classes", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeAuthStateUnknown {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAuthStateUnknown)
	}
}

// TestAccessGate_InChiRouterWithRateLimit はchiのルートグループ内で
// アクセスゲート -> レート制限 の順に動作することを検証する。
func TestAccessGate_InChiRouterWithRateLimit(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(r *http.Request) model.AuthState {
			c, err := r.Cookie("session_id")
			if err != nil || c.Value != "router-test-session" {
				return model.UnauthenticatedAuthState()
			}
			return model.AuthenticatedAuthState(&model.User{ID: "user-router-test"})
		},
	}
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	r := chi.NewRouter()
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Group(func(r chi.Router) {
		r.Use(NewAccessGateMiddleware(resolver, AccessGateConfig{}))
		r.Use(rl.GeneralMiddleware())
		r.Get("/live-classes", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			io.WriteString(w, userID)
		})
	})

	t.Run("with_session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/live-classes", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "router-test-session"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "user-router-test" {
			t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
		}
	})

	t.Run("rate_limited", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/live-classes", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "router-test-session"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", w.Code)
		}
	})

	t.Run("no_session_redirects", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live-classes", nil))

		if w.Code != http.StatusTemporaryRedirect {
			t.Errorf("status = %d, want 307", w.Code)
		}
	})

	t.Run("login_is_public", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestContextWithUser_NilUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithUser(req.Context(), nil)

	if _, ok := UserFromContext(ctx); ok {
		t.Error("nilユーザーを注入してはならない")
	}
	if _, err := UserIDFromContext(ctx); err == nil {
		t.Error("ユーザーIDが存在してはならない")
	}
}
