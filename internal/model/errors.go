// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, session, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeAuthStateUnknown = "AUTH_STATE_UNKNOWN"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewAuthStateUnknownError は認証状態を確認できない場合のエラーを生成する。
func NewAuthStateUnknownError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthStateUnknown,
		Message:  "認証状態を確認しています。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "指定された時間が経過してから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// FetchErrorKind はセッション一覧取得の失敗分類。
type FetchErrorKind string

const (
	// FetchErrorNetwork はリクエストを送信・完了できなかったことを示す。
	FetchErrorNetwork FetchErrorKind = "network"
	// FetchErrorResponse はバックエンドが2xx以外を返したことを示す。
	FetchErrorResponse FetchErrorKind = "response"
	// FetchErrorDataShape はレスポンスボディが期待した形式でないことを示す。
	FetchErrorDataShape FetchErrorKind = "data_shape"
)

// FetchError はセッション一覧取得の失敗を表す。
// 描画層はOk([])と同じように扱うが、種別は保持しておく。
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // Kind が response の場合のみ設定される
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchErrorResponse:
		return fmt.Sprintf("live session fetch failed (%s): status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("live session fetch failed (%s): %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("live session fetch failed (%s)", e.Kind)
	}
}

// Unwrap は原因となったエラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}
