// Package gate は保護されたビューへのナビゲーション可否を判定する。
package gate

import "github.com/hitoshi/liveclass/internal/model"

// DefaultLoginPath は未認証時のリダイレクト先。
const DefaultLoginPath = "/login"

// Outcome は判定結果の種別。
type Outcome int

const (
	// Allow は要求されたビューの描画を許可する。
	Allow Outcome = iota
	// Redirect はログイン画面へ遷移させる。現在の履歴エントリは置き換える。
	Redirect
	// Wait は認証状態が未確定のため中立的な待機画面を表示する。
	Wait
)

// String はログとメトリクスのラベル用の名前を返す。
func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "wait"
	}
}

// Decision はアクセスゲートの判定結果。
type Decision struct {
	Outcome  Outcome
	Location string // Outcome が Redirect の場合のみ設定される
	Replace  bool   // 履歴エントリを置き換える遷移であるか
	User     *model.User
}

// Gate はアクセスゲート。リダイレクト先のみを設定として持つ。
type Gate struct {
	loginPath string
}

// New はGateを生成する。loginPathが空の場合はDefaultLoginPathを使用する。
func New(loginPath string) *Gate {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Gate{loginPath: loginPath}
}

// LoginPath はリダイレクト先を返す。
func (g *Gate) LoginPath() string {
	return g.loginPath
}

// Evaluate は認証状態から判定結果を返す。全ての入力に対してちょうど1つの結果を返す。
func (g *Gate) Evaluate(state model.AuthState) Decision {
	switch state.Status() {
	case model.AuthAuthenticated:
		if user := state.User(); user != nil {
			return Decision{Outcome: Allow, User: user}
		}
		return g.redirect()
	case model.AuthUnauthenticated:
		return g.redirect()
	default:
		return Decision{Outcome: Wait}
	}
}

func (g *Gate) redirect() Decision {
	return Decision{Outcome: Redirect, Location: g.loginPath, Replace: true}
}

// Evaluate はDefaultLoginPathを使って判定する。
func Evaluate(state model.AuthState) Decision {
	return New(DefaultLoginPath).Evaluate(state)
}
