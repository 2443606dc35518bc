// Package view はサーバーサイドで描画するHTMLページを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/hitoshi/liveclass/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// LoadingMessage は認証状態の確認中に表示する文言。
const LoadingMessage = "Loading live classes..."

// FetchState はページに埋め込む取得結果の種別。
const (
	FetchStateOK     = "ok"
	FetchStateFailed = "failed"
)

// LiveClassesPage はライブ授業一覧ページの描画データ。
type LiveClassesPage struct {
	View         render.View
	FetchState   string
	ErrorKind    string
	ActivationID string
	JoinLabel    string
}

// LoginPage はログインページの描画データ。
type LoginPage struct {
	AuthLoginURL string
}

// WaitingPage は待機ページの描画データ。
type WaitingPage struct {
	Message        string
	RefreshSeconds int
}

// Pages はパース済みのページテンプレートを保持する。
type Pages struct {
	liveClasses *template.Template
	login       *template.Template
	waiting     *template.Template
}

// New はテンプレートをパースしてPagesを生成する。
func New() (*Pages, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.New("pages").ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return t, nil
	}

	liveClasses, err := parse("live_classes.html")
	if err != nil {
		return nil, err
	}
	login, err := parse("login.html")
	if err != nil {
		return nil, err
	}
	waiting, err := parse("waiting.html")
	if err != nil {
		return nil, err
	}

	return &Pages{
		liveClasses: liveClasses,
		login:       login,
		waiting:     waiting,
	}, nil
}

// MustNew はNewと同様だが、失敗時にpanicする。
func MustNew() *Pages {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

// RenderLiveClasses はライブ授業一覧ページを描画する。
func (p *Pages) RenderLiveClasses(w io.Writer, data LiveClassesPage) error {
	if data.JoinLabel == "" {
		data.JoinLabel = render.JoinLabel
	}
	if data.FetchState == "" {
		data.FetchState = FetchStateOK
	}
	return execute(w, p.liveClasses, data)
}

// RenderLogin はログインページを描画する。
func (p *Pages) RenderLogin(w io.Writer, data LoginPage) error {
	return execute(w, p.login, data)
}

// RenderWaiting は待機ページを描画する。
func (p *Pages) RenderWaiting(w io.Writer, data WaitingPage) error {
	if data.Message == "" {
		data.Message = LoadingMessage
	}
	if data.RefreshSeconds <= 0 {
		data.RefreshSeconds = 1
	}
	return execute(w, p.waiting, data)
}

// 途中まで書き込んだ状態でエラーにならないよう、バッファに描画してから書き出す。
func execute(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler は埋め込みの静的ファイル（CSS）を配信するハンドラーを返す。
// /static/ 配下にマウントする前提とする。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
