package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/liveclass/internal/credential"
	"github.com/hitoshi/liveclass/internal/livesession"
	"github.com/hitoshi/liveclass/internal/middleware"
	"github.com/hitoshi/liveclass/internal/model"
	"github.com/hitoshi/liveclass/internal/render"
	"github.com/hitoshi/liveclass/internal/view"
)

// SessionLoader はビュー表示1回分のセッション一覧取得を行うインターフェース。
// livesession.Loaderが実装する。
type SessionLoader interface {
	Load(ctx context.Context, store credential.Store) (livesession.Result, string)
}

// ViewRenderer はセッション一覧を表示用のビューに変換するインターフェース。
type ViewRenderer interface {
	Render(list model.SessionList) render.View
}

// CardsRecorder は描画したカード数の記録に必要なインターフェース。
type CardsRecorder interface {
	RecordCardsRendered(media string, count int)
}

// LiveClassHandler はライブ授業一覧のHTTPハンドラー。
type LiveClassHandler struct {
	loader   SessionLoader
	renderer ViewRenderer
	pages    *view.Pages
	metrics  CardsRecorder
	logger   *slog.Logger
}

// NewLiveClassHandler はLiveClassHandlerを生成する。
func NewLiveClassHandler(loader SessionLoader, renderer ViewRenderer, pages *view.Pages, metrics CardsRecorder, logger *slog.Logger) *LiveClassHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveClassHandler{
		loader:   loader,
		renderer: renderer,
		pages:    pages,
		metrics:  metrics,
		logger:   logger,
	}
}

// liveClassesResponse はGET /api/live-classesのレスポンス。
type liveClassesResponse struct {
	State        string       `json:"state"`
	ActivationID string       `json:"activation_id"`
	ErrorKind    string       `json:"error_kind,omitempty"`
	StatusCode   int          `json:"status_code,omitempty"`
	View         viewResponse `json:"view"`
}

type viewResponse struct {
	Empty        bool           `json:"empty"`
	EmptyMessage string         `json:"empty_message,omitempty"`
	Cards        []cardResponse `json:"cards"`
}

type cardResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	TeacherName     string        `json:"teacher_name"`
	StartTime       string        `json:"start_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Platform        string        `json:"live_platform"`
	Media           mediaResponse `json:"media"`
	ShowJoin        bool          `json:"show_join"`
}

type mediaResponse struct {
	Kind        string `json:"kind"`
	EmbedURL    string `json:"embed_url,omitempty"`
	Title       string `json:"title,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Page はライブ授業一覧ページを返す。
// GET /live-classes
//
// 取得失敗時も空状態と同じ表示にする。失敗の種別はdata属性にのみ残す。
func (h *LiveClassHandler) Page(w http.ResponseWriter, r *http.Request) {
	result, activationID := h.load(r)
	v := h.renderView(result)

	data := view.LiveClassesPage{
		View:         v,
		FetchState:   view.FetchStateOK,
		ActivationID: activationID,
		JoinLabel:    render.JoinLabel,
	}
	if !result.IsOk() {
		data.FetchState = view.FetchStateFailed
		data.ErrorKind = string(result.Err().Kind)
	}

	var buf bytes.Buffer
	if err := h.pages.RenderLiveClasses(&buf, data); err != nil {
		h.logger.Error("failed to render live classes page",
			slog.String("activation_id", activationID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// List はライブ授業一覧をJSONで返す。
// GET /api/live-classes
//
// HTMLと違い、取得結果の種別（ok / error）をそのまま返す。
func (h *LiveClassHandler) List(w http.ResponseWriter, r *http.Request) {
	result, activationID := h.load(r)
	v := h.renderView(result)

	resp := liveClassesResponse{
		State:        view.FetchStateOK,
		ActivationID: activationID,
		View:         toViewResponse(v),
	}
	if !result.IsOk() {
		fetchErr := result.Err()
		resp.State = "error"
		resp.ErrorKind = string(fetchErr.Kind)
		resp.StatusCode = fetchErr.StatusCode
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *LiveClassHandler) load(r *http.Request) (livesession.Result, string) {
	return h.loader.Load(r.Context(), credential.NewCookieStore(r))
}

func (h *LiveClassHandler) renderView(result livesession.Result) render.View {
	v := h.renderer.Render(result.Sessions())
	if h.metrics != nil {
		for kind, n := range v.CountByMedia() {
			h.metrics.RecordCardsRendered(kind.String(), n)
		}
	}
	return v
}

func toViewResponse(v render.View) viewResponse {
	resp := viewResponse{
		Empty:        v.Empty,
		EmptyMessage: v.EmptyMessage,
		Cards:        make([]cardResponse, 0, len(v.Cards)),
	}
	for _, c := range v.Cards {
		card := cardResponse{
			ID:              c.Key,
			Title:           c.Title,
			TeacherName:     c.TeacherName,
			StartTime:       c.StartTime,
			DurationMinutes: c.DurationMinutes,
			Platform:        string(c.Platform),
			Media:           mediaResponse{Kind: c.Media.Kind.String()},
			ShowJoin:        c.ShowJoin,
		}
		if c.Media.IsPlayer() {
			card.Media.EmbedURL = c.Media.Player.URL
			card.Media.Title = c.Media.Player.Title
		} else {
			card.Media.Placeholder = c.Media.PlaceholderText
		}
		resp.Cards = append(resp.Cards, card)
	}
	return resp
}
