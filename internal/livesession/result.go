package livesession

import "github.com/hitoshi/liveclass/internal/model"

// Result はセッション一覧取得の結果。Ok(SessionList) または Err(FetchError) のいずれか。
type Result struct {
	sessions model.SessionList
	err      *model.FetchError
}

// Ok は成功結果を返す。
func Ok(list model.SessionList) Result {
	if list == nil {
		list = model.SessionList{}
	}
	return Result{sessions: list}
}

// Err は失敗結果を返す。
func Err(err *model.FetchError) Result {
	if err == nil {
		err = &model.FetchError{Kind: model.FetchErrorNetwork}
	}
	return Result{err: err}
}

// IsOk は成功結果であるかを返す。
func (r Result) IsOk() bool {
	return r.err == nil
}

// Err は失敗の詳細を返す。成功時はnil。
func (r Result) Err() *model.FetchError {
	return r.err
}

// Sessions は取得したセッション一覧を返す。失敗時は空の一覧を返すため、
// 描画層は成功時の空一覧と同じように扱える。
func (r Result) Sessions() model.SessionList {
	if r.err != nil || r.sessions == nil {
		return model.SessionList{}
	}
	return r.sessions
}
