package model

// AuthStatus は認証状態の種別を表す。
type AuthStatus int

const (
	// AuthUnknown は認証状態がまだ確定していないことを示す。
	// セッションストアへの問い合わせが失敗した場合などに使用する。
	AuthUnknown AuthStatus = iota
	// AuthUnauthenticated は未認証であることを示す。
	AuthUnauthenticated
	// AuthAuthenticated は認証済みであることを示す。
	AuthAuthenticated
)

// String はログとメトリクスのラベル用の名前を返す。
func (s AuthStatus) String() string {
	switch s {
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthState はナビゲーション判定時点の認証状態のスナップショット。
// Unknown / Unauthenticated / Authenticated(user) のタグ付きバリアントとして扱う。
type AuthState struct {
	status AuthStatus
	user   *User
}

// UnknownAuthState は未確定の認証状態を返す。
func UnknownAuthState() AuthState {
	return AuthState{status: AuthUnknown}
}

// UnauthenticatedAuthState は未認証の認証状態を返す。
func UnauthenticatedAuthState() AuthState {
	return AuthState{status: AuthUnauthenticated}
}

// AuthenticatedAuthState は認証済みの認証状態を返す。
// userがnilの場合は未認証として扱う。
func AuthenticatedAuthState(user *User) AuthState {
	if user == nil {
		return UnauthenticatedAuthState()
	}
	return AuthState{status: AuthAuthenticated, user: user}
}

// Status は認証状態の種別を返す。
func (s AuthState) Status() AuthStatus {
	return s.status
}

// User は認証済みユーザーを返す。認証済みでない場合はnilを返す。
func (s AuthState) User() *User {
	if s.status != AuthAuthenticated {
		return nil
	}
	return s.user
}
