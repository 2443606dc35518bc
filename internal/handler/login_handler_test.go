package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/liveclass/internal/view"
)

func TestLoginHandler_Page(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoginHandler(view.MustNew(), "https://auth.example.com/login", newTestLogger(&buf))

	w := httptest.NewRecorder()
	h.Page(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), `href="https://auth.example.com/login"`) {
		t.Error("ログインページに認証サービスへのリンクが含まれていない")
	}
}
