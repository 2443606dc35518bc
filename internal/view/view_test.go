package view

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hitoshi/liveclass/internal/model"
	"github.com/hitoshi/liveclass/internal/render"
)

// --- HTML解析ヘルパー ---

func parseHTML(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("HTMLのパースに失敗: %v", err)
	}
	return doc
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func strPtr(s string) *string { return &s }

func renderLiveClasses(t *testing.T, data LiveClassesPage) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	if err := MustNew().RenderLiveClasses(&buf, data); err != nil {
		t.Fatalf("RenderLiveClasses がエラーを返した: %v", err)
	}
	return parseHTML(t, buf.String())
}

func newRenderer() *render.Renderer {
	return render.NewRenderer(nil, render.NewTimeFormatter(nil))
}

// --- テスト ---

func TestNew_ParsesTemplates(t *testing.T) {
	if _, err := New(); err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}
}

func TestRenderLiveClasses_EmptyState(t *testing.T) {
	doc := renderLiveClasses(t, LiveClassesPage{View: newRenderer().Render(nil)})

	empties := findAll(doc, byClass("empty"))
	if len(empties) != 1 {
		t.Fatalf("空状態の要素数 = %d, want 1", len(empties))
	}
	if got := text(empties[0]); got != "No live sessions scheduled at the moment." {
		t.Errorf("空状態の文言 = %q", got)
	}
	if cards := findAll(doc, byClass("card")); len(cards) != 0 {
		t.Errorf("カード数 = %d, want 0", len(cards))
	}
	if grids := findAll(doc, byClass("grid")); len(grids) != 0 {
		t.Error("空の場合にカードのコンテナを描画してはならない")
	}

	h1 := findAll(doc, byTag("h1"))
	if len(h1) != 1 || text(h1[0]) != "Live Classes" {
		t.Errorf("見出しが不正: %v", h1)
	}
}

// Scenario B: 埋め込みプレーヤーのiframeが描画され、参加ボタンは無い。
func TestRenderLiveClasses_YouTubeCard(t *testing.T) {
	v := newRenderer().Render(model.SessionList{{
		ID:             1,
		Title:          "Algebra",
		TeacherName:    "A. Smith",
		LivePlatform:   model.PlatformYouTube,
		YouTubeVideoID: strPtr("abc123"),
		StartTime:      "2024-01-01T10:00:00Z",
	}})

	doc := renderLiveClasses(t, LiveClassesPage{View: v})

	iframes := findAll(doc, byTag("iframe"))
	if len(iframes) != 1 {
		t.Fatalf("iframe数 = %d, want 1", len(iframes))
	}
	f := iframes[0]
	if src, _ := attr(f, "src"); src != "https://www.youtube.com/embed/abc123?rel=0&modestbranding=1" {
		t.Errorf("src = %q", src)
	}
	if title, _ := attr(f, "title"); title != "Algebra" {
		t.Errorf("title = %q, want Algebra", title)
	}
	if _, ok := attr(f, "allowfullscreen"); !ok {
		t.Error("allowfullscreen属性が無い")
	}
	if allow, _ := attr(f, "allow"); !strings.Contains(allow, "encrypted-media") {
		t.Errorf("allow = %q", allow)
	}
	if players := findAll(doc, byClass("player")); len(players) != 1 {
		t.Errorf("16:9のプレーヤー枠が無い")
	}
	if joins := findAll(doc, byClass("join")); len(joins) != 0 {
		t.Errorf("参加ボタン数 = %d, want 0", len(joins))
	}

	teacher := findAll(doc, byClass("teacher"))
	if len(teacher) != 1 || text(teacher[0]) != "By A. Smith" {
		t.Errorf("講師名の表示が不正")
	}
	start := findAll(doc, byClass("start-time"))
	if len(start) != 1 || text(start[0]) != "1/1/2024, 10:00:00 AM" {
		t.Errorf("開始時刻の表示が不正")
	}
}

// Scenario C: videosdkはプレースホルダーと操作を持たない参加ボタン。
func TestRenderLiveClasses_VideoSDKCard(t *testing.T) {
	v := newRenderer().Render(model.SessionList{{
		ID:           2,
		Title:        "Physics",
		TeacherName:  "B. Lee",
		LivePlatform: model.PlatformVideoSDK,
		StartTime:    "2024-01-02T09:00:00Z",
	}})

	doc := renderLiveClasses(t, LiveClassesPage{View: v})

	placeholders := findAll(doc, byClass("placeholder"))
	if len(placeholders) != 1 || text(placeholders[0]) != "VideoSDK Session" {
		t.Fatalf("プレースホルダーが不正")
	}
	joins := findAll(doc, byClass("join"))
	if len(joins) != 1 {
		t.Fatalf("参加ボタン数 = %d, want 1", len(joins))
	}
	if text(joins[0]) != "Join Class" {
		t.Errorf("参加ボタンの文言 = %q", text(joins[0]))
	}
	if typ, _ := attr(joins[0], "type"); typ != "button" {
		t.Errorf("type = %q, want button", typ)
	}
	if len(findAll(doc, byTag("form"))) != 0 {
		t.Error("参加ボタンに送信先を持たせてはならない")
	}
	if len(findAll(doc, byTag("iframe"))) != 0 {
		t.Error("iframeを描画してはならない")
	}
}

func TestRenderLiveClasses_PreservesOrderAndKeys(t *testing.T) {
	v := newRenderer().Render(model.SessionList{
		{ID: 30, LivePlatform: model.PlatformVideoSDK},
		{ID: 10, LivePlatform: "zoom"},
		{ID: 20, LivePlatform: model.PlatformYouTube},
	})

	doc := renderLiveClasses(t, LiveClassesPage{View: v})

	cards := findAll(doc, byClass("card"))
	want := []string{"30", "10", "20"}
	if len(cards) != len(want) {
		t.Fatalf("カード数 = %d, want %d", len(cards), len(want))
	}
	for i, c := range cards {
		if id, _ := attr(c, "data-session-id"); id != want[i] {
			t.Errorf("cards[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestRenderLiveClasses_EscapesText(t *testing.T) {
	v := newRenderer().Render(model.SessionList{{
		ID:           1,
		Title:        `<script>alert(1)</script>`,
		LivePlatform: "zoom",
	}})

	var buf bytes.Buffer
	if err := MustNew().RenderLiveClasses(&buf, LiveClassesPage{View: v}); err != nil {
		t.Fatalf("RenderLiveClasses がエラーを返した: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("タイトルがエスケープされていない")
	}
}

// 取得失敗時も空状態と同じ表示となり、種別はdata属性にのみ残る。
func TestRenderLiveClasses_FailedFetchLooksEmpty(t *testing.T) {
	doc := renderLiveClasses(t, LiveClassesPage{
		View:         newRenderer().Render(nil),
		FetchState:   FetchStateFailed,
		ErrorKind:    string(model.FetchErrorResponse),
		ActivationID: "act-1",
	})

	root := findAll(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return id == "live-classes"
	})
	if len(root) != 1 {
		t.Fatal("ルート要素が無い")
	}
	if v, _ := attr(root[0], "data-fetch-state"); v != "failed" {
		t.Errorf("data-fetch-state = %q, want failed", v)
	}
	if v, _ := attr(root[0], "data-error-kind"); v != "response" {
		t.Errorf("data-error-kind = %q, want response", v)
	}
	if v, _ := attr(root[0], "data-activation-id"); v != "act-1" {
		t.Errorf("data-activation-id = %q, want act-1", v)
	}
	if empties := findAll(doc, byClass("empty")); len(empties) != 1 {
		t.Errorf("空状態の要素数 = %d, want 1", len(empties))
	}
}

func TestRenderLiveClasses_DefaultFetchStateOK(t *testing.T) {
	doc := renderLiveClasses(t, LiveClassesPage{View: newRenderer().Render(nil)})

	root := findAll(doc, func(n *html.Node) bool {
		_, ok := attr(n, "data-fetch-state")
		return ok
	})
	if len(root) != 1 {
		t.Fatal("data-fetch-state属性が無い")
	}
	if v, _ := attr(root[0], "data-fetch-state"); v != "ok" {
		t.Errorf("data-fetch-state = %q, want ok", v)
	}
	if _, ok := attr(root[0], "data-error-kind"); ok {
		t.Error("成功時にdata-error-kindを出力してはならない")
	}
}

func TestRenderLogin_LinksToAuthLoginURL(t *testing.T) {
	var buf bytes.Buffer
	if err := MustNew().RenderLogin(&buf, LoginPage{AuthLoginURL: "https://auth.example.com/login"}); err != nil {
		t.Fatalf("RenderLogin がエラーを返した: %v", err)
	}
	doc := parseHTML(t, buf.String())

	links := findAll(doc, byTag("a"))
	if len(links) != 1 {
		t.Fatalf("リンク数 = %d, want 1", len(links))
	}
	if href, _ := attr(links[0], "href"); href != "https://auth.example.com/login" {
		t.Errorf("href = %q", href)
	}
}

func TestRenderWaiting_RefreshesItself(t *testing.T) {
	var buf bytes.Buffer
	if err := MustNew().RenderWaiting(&buf, WaitingPage{}); err != nil {
		t.Fatalf("RenderWaiting がエラーを返した: %v", err)
	}
	doc := parseHTML(t, buf.String())

	metas := findAll(doc, func(n *html.Node) bool {
		v, _ := attr(n, "http-equiv")
		return n.Data == "meta" && v == "refresh"
	})
	if len(metas) != 1 {
		t.Fatalf("refreshのmeta要素数 = %d, want 1", len(metas))
	}
	if v, _ := attr(metas[0], "content"); v != "1" {
		t.Errorf("content = %q, want 1", v)
	}

	waiting := findAll(doc, byClass("waiting"))
	if len(waiting) != 1 || text(waiting[0]) != "Loading live classes..." {
		t.Error("待機メッセージが不正")
	}
	if len(findAll(doc, byClass("card"))) != 0 {
		t.Error("待機中にカードを描画してはならない")
	}
}

func TestStaticHandler_ServesCSS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	w := httptest.NewRecorder()

	StaticHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "56.25%") {
		t.Error("16:9のスタイルが含まれていない")
	}
}
