// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はバックエンドから受け取った表示用文字列（授業タイトル、講師名など）を
// プレーンテキストとして正規化する。値はHTMLとして解釈せず、
// "List<T>" のような山括弧を含む文字列もそのまま残す。
// bluemondayのStrictPolicyには必ずエスケープ済みの文字列を渡す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は表示用文字列のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize は文字列をプレーンテキストとして正規化して返す。
	// タグに見える部分も文字として保持する（エスケープはテンプレートが行う）。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は文字列を前後の空白を除いたプレーンテキストにする。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(html.EscapeString(raw))))
}
