package credential

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccessToken(t *testing.T) {
	tests := []struct {
		name      string
		store     Store
		wantToken string
		wantOK    bool
	}{
		{
			name:      "access field present",
			store:     MapStore{StorageKey: `{"access":"abc","refresh":"r"}`},
			wantToken: "abc",
			wantOK:    true,
		},
		{
			name:   "key absent",
			store:  MapStore{},
			wantOK: false,
		},
		{
			name:   "malformed json",
			store:  MapStore{StorageKey: `{"access":`},
			wantOK: false,
		},
		{
			name:   "json array",
			store:  MapStore{StorageKey: `["abc"]`},
			wantOK: false,
		},
		{
			name:   "access not a string",
			store:  MapStore{StorageKey: `{"access":123}`},
			wantOK: false,
		},
		{
			name:   "access null",
			store:  MapStore{StorageKey: `{"access":null}`},
			wantOK: false,
		},
		{
			name:   "access empty",
			store:  MapStore{StorageKey: `{"access":""}`},
			wantOK: false,
		},
		{
			name:   "nil store",
			store:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := AccessToken(tt.store)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestCookieStore_DecodesURLEncodedValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live-classes", nil)
	req.AddCookie(&http.Cookie{
		Name:  StorageKey,
		Value: EncodeCookieValue(`{"access":"abc"}`),
	})

	store := NewCookieStore(req)

	raw, ok := store.Get(StorageKey)
	if !ok {
		t.Fatal("Cookieが見つからない")
	}
	if raw != `{"access":"abc"}` {
		t.Errorf("raw = %q, want %q", raw, `{"access":"abc"}`)
	}

	token, ok := AccessToken(store)
	if !ok || token != "abc" {
		t.Errorf("AccessToken() = (%q, %v), want (%q, true)", token, ok, "abc")
	}
}

func TestCookieStore_MissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live-classes", nil)

	if _, ok := NewCookieStore(req).Get(StorageKey); ok {
		t.Error("Cookieが無い場合はfalseを返すべき")
	}
}

func TestCookieStore_UndecodableValue_IsAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live-classes", nil)
	req.AddCookie(&http.Cookie{Name: StorageKey, Value: "%zz"})

	if _, ok := NewCookieStore(req).Get(StorageKey); ok {
		t.Error("デコードできない値は存在しないものとして扱うべき")
	}
}

func TestCookieStore_NilRequest(t *testing.T) {
	var s *CookieStore
	if _, ok := s.Get(StorageKey); ok {
		t.Error("nilのストアはfalseを返すべき")
	}
}
