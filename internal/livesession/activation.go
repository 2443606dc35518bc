package livesession

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hitoshi/liveclass/internal/credential"
	"github.com/hitoshi/liveclass/internal/model"
)

// State はActivationの状態。
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

// String はログ用の名前を返す。
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "failed"
	}
}

// Fetcher はセッション一覧を取得するインターフェース。
// Clientが実装し、テストではダブルに差し替える。
type Fetcher interface {
	Fetch(ctx context.Context, token string, hasToken bool) (model.SessionList, error)
}

type activationIDKey struct{}

// WithActivationID はActivation IDをコンテキストに格納する。
func WithActivationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, activationIDKey{}, id)
}

// ActivationIDFromContext はコンテキストからActivation IDを取得する。
func ActivationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(activationIDKey{}).(string)
	return id
}

// Activation はビュー1回分の表示に対応する取得の状態機械。
// Idle -> Loading -> Loaded | Failed と遷移し、Loaded/Failedは終端状態。
// 取得はStartを何度呼んでも1回だけ行われる。
type Activation struct {
	id      string
	fetcher Fetcher
	store   credential.Store
	logger  *slog.Logger

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}

	mu     sync.Mutex
	state  State
	result Result
	closed bool
	cancel context.CancelFunc
}

func newActivation(fetcher Fetcher, store credential.Store, logger *slog.Logger) *Activation {
	return &Activation{
		id:      uuid.NewString(),
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		done:    make(chan struct{}),
		state:   StateIdle,
	}
}

// ID はActivation IDを返す。
func (a *Activation) ID() string {
	return a.id
}

// Start は取得を開始する。2回目以降の呼び出しは何もしない。
// Close済みの場合は取得を行わない。
func (a *Activation) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		fetchCtx, cancel := context.WithCancel(WithActivationID(ctx, a.id))
		a.cancel = cancel
		a.state = StateLoading
		a.mu.Unlock()

		go a.run(fetchCtx)
	})
}

func (a *Activation) run(ctx context.Context) {
	// 認証トークンは構築時ではなく取得時に読み出す
	token, ok := credential.AccessToken(a.store)
	list, err := a.fetcher.Fetch(ctx, token, ok)
	a.settle(list, err)
}

func (a *Activation) settle(list model.SessionList, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.logger.Debug("dropped live session result after close",
			slog.String("activation_id", a.id),
		)
		return
	}
	if a.state != StateLoading {
		return
	}

	if err != nil {
		a.state = StateFailed
		a.result = Err(toFetchError(err))
	} else {
		a.state = StateLoaded
		a.result = Ok(list)
	}
	a.cancel()
	a.signalDone()
}

// Wait は取得が終端状態に達するか、Closeされるか、ctxが終了するまで待つ。
// 終端状態に達した場合は結果とtrueを返す。
func (a *Activation) Wait(ctx context.Context) (Result, bool) {
	select {
	case <-a.done:
	case <-ctx.Done():
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateLoaded || a.state == StateFailed {
		return a.result, true
	}
	return Result{}, false
}

// State は現在の状態を返す。
func (a *Activation) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Result は終端状態の結果を返す。終端状態でない場合はfalseを返す。
func (a *Activation) Result() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateLoaded || a.state == StateFailed {
		return a.result, true
	}
	return Result{}, false
}

// Close はビューの破棄を表す。以降に到着した取得結果は適用されない。
func (a *Activation) Close() {
	a.mu.Lock()
	a.closed = true
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.signalDone()
}

func (a *Activation) signalDone() {
	a.doneOnce.Do(func() { close(a.done) })
}

func toFetchError(err error) *model.FetchError {
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &model.FetchError{Kind: model.FetchErrorNetwork, Err: err}
}

// Loader はActivationを生成する。
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewLoader はLoaderを生成する。
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	return &Loader{fetcher: fetcher, logger: logger}
}

// Activate はビュー表示1回分のActivationを生成する。取得はStartで開始する。
func (l *Loader) Activate(store credential.Store) *Activation {
	return newActivation(l.fetcher, store, l.logger)
}

// Load はActivationを開始して終端状態まで待つ。ctxが先に終了した場合は
// Activationを閉じてネットワーク失敗として扱う。
func (l *Loader) Load(ctx context.Context, store credential.Store) (Result, string) {
	a := l.Activate(store)
	defer a.Close()

	a.Start(ctx)
	result, ok := a.Wait(ctx)
	if !ok {
		return Err(&model.FetchError{Kind: model.FetchErrorNetwork, Err: ctx.Err()}), a.ID()
	}
	return result, a.ID()
}
