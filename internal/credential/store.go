// Package credential はクライアント側に永続化された認証トークンを読み出す。
package credential

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// StorageKey は認証トークンを保持するキー。
const StorageKey = "authTokens"

// Store は永続化されたキーバリューストアの読み取りインターフェース。
type Store interface {
	Get(key string) (string, bool)
}

// CookieStore はリクエストのCookieをキーバリューストアとして扱う。
// JSONはそのままCookieに格納できないため、値はURLエンコードされている前提とする。
type CookieStore struct {
	r *http.Request
}

// NewCookieStore はCookieStoreを生成する。
func NewCookieStore(r *http.Request) *CookieStore {
	return &CookieStore{r: r}
}

// Get はキーに対応するCookieの値をデコードして返す。
// Cookieが無い場合やデコードできない場合は存在しないものとして扱う。
func (s *CookieStore) Get(key string) (string, bool) {
	if s == nil || s.r == nil {
		return "", false
	}
	cookie, err := s.r.Cookie(key)
	if err != nil {
		return "", false
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

// MapStore はメモリ上のストア。
type MapStore map[string]string

// Get はキーに対応する値を返す。
func (m MapStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// EncodeCookieValue はトークンJSONをCookieに格納できる形式に変換する。
func EncodeCookieValue(raw string) string {
	return url.QueryEscape(raw)
}

type tokens struct {
	Access *string `json:"access"`
}

// AccessToken はストアからアクセストークンを取り出す。
// キーが無い、JSONとして不正、accessが文字列でない、または空の場合はfalseを返す。
// トークンの更新や有効期限の確認は行わない。
func AccessToken(store Store) (string, bool) {
	if store == nil {
		return "", false
	}
	raw, ok := store.Get(StorageKey)
	if !ok || raw == "" {
		return "", false
	}

	var t tokens
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return "", false
	}
	if t.Access == nil || *t.Access == "" {
		return "", false
	}
	return *t.Access, true
}
