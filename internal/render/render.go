// Package render はライブセッション一覧を表示用のカードに変換する。
// 入力のみから出力が決まる純粋な変換で、並べ替えや絞り込みは行わない。
package render

import (
	"time"

	"github.com/hitoshi/liveclass/internal/model"
)

// 表示文言
const (
	EmptyMessage        = "No live sessions scheduled at the moment."
	VideoSDKPlaceholder = "VideoSDK Session"
	NoVideoPlaceholder  = "No Video Available"
	JoinLabel           = "Join Class"
	displayTimeLayout   = "1/2/2006, 3:04:05 PM"
)

// MediaKind はカードのメディア領域の種別。
type MediaKind int

const (
	MediaPlaceholder MediaKind = iota
	MediaPlayer
)

// String はメトリクスのラベル用の名前を返す。
func (k MediaKind) String() string {
	if k == MediaPlayer {
		return "player"
	}
	return "placeholder"
}

// Media はカードのメディア領域。埋め込みプレーヤーかプレースホルダーのいずれか。
type Media struct {
	Kind            MediaKind
	Player          *EmbedPlayer
	PlaceholderText string
}

// IsPlayer は埋め込みプレーヤーであるかを返す。
func (m Media) IsPlayer() bool {
	return m.Kind == MediaPlayer && m.Player != nil
}

// Card はライブセッション1件分の表示内容。
type Card struct {
	Key             int64
	Title           string
	TeacherName     string
	StartTime       string
	DurationMinutes int
	Platform        model.Platform
	Media           Media
	ShowJoin        bool
}

// View は描画結果。空の場合はカードを持たず、空状態のメッセージを1つだけ持つ。
type View struct {
	Empty        bool
	EmptyMessage string
	Cards        []Card
}

// Sanitizer は表示用文字列のサニタイザー。
type Sanitizer interface {
	Sanitize(raw string) string
}

// TimeFormatter は開始時刻を表示用に整形する。
type TimeFormatter struct {
	loc *time.Location
}

// NewTimeFormatter は指定したタイムゾーンで整形するTimeFormatterを生成する。
// locがnilの場合はUTCを使用する。
func NewTimeFormatter(loc *time.Location) TimeFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return TimeFormatter{loc: loc}
}

// Format はRFC 3339の時刻文字列を整形する。解釈できない場合は入力をそのまま返す。
func (f TimeFormatter) Format(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	loc := f.loc
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayTimeLayout)
}

// Renderer はSessionListをViewに変換する。
type Renderer struct {
	sanitizer Sanitizer
	formatter TimeFormatter
}

// NewRenderer はRendererを生成する。sanitizerがnilの場合は文字列をそのまま使用する。
func NewRenderer(sanitizer Sanitizer, formatter TimeFormatter) *Renderer {
	return &Renderer{
		sanitizer: sanitizer,
		formatter: formatter,
	}
}

// Render はセッション一覧を入力順のカードに変換する。
func (r *Renderer) Render(list model.SessionList) View {
	if len(list) == 0 {
		return View{Empty: true, EmptyMessage: EmptyMessage}
	}

	cards := make([]Card, 0, len(list))
	for _, s := range list {
		cards = append(cards, r.card(s))
	}
	return View{Cards: cards}
}

func (r *Renderer) card(s model.LiveSession) Card {
	title := r.clean(s.Title)
	media := SelectMedia(s)
	if media.Player != nil {
		p := NewEmbedPlayer(media.Player.VideoID, title)
		media.Player = &p
	}

	return Card{
		Key:             s.ID,
		Title:           title,
		TeacherName:     r.clean(s.TeacherName),
		StartTime:       r.formatter.Format(s.StartTime),
		DurationMinutes: s.DurationMinutes,
		Platform:        s.LivePlatform,
		Media:           media,
		ShowJoin:        ShowJoin(s),
	}
}

func (r *Renderer) clean(s string) string {
	if r.sanitizer == nil {
		return s
	}
	return r.sanitizer.Sanitize(s)
}

// SelectMedia はセッションのメディア領域を決める。
// youtubeかつ動画IDが空でない場合のみ埋め込みプレーヤーとなり、
// それ以外はプレースホルダーとなる。
func SelectMedia(s model.LiveSession) Media {
	if s.LivePlatform == model.PlatformYouTube && s.VideoID() != "" {
		p := NewEmbedPlayer(s.VideoID(), s.Title)
		return Media{Kind: MediaPlayer, Player: &p}
	}
	if s.LivePlatform == model.PlatformVideoSDK {
		return Media{Kind: MediaPlaceholder, PlaceholderText: VideoSDKPlaceholder}
	}
	return Media{Kind: MediaPlaceholder, PlaceholderText: NoVideoPlaceholder}
}

// ShowJoin は参加ボタンを表示するかを返す。メディア領域の種別とは独立に決まる。
func ShowJoin(s model.LiveSession) bool {
	return s.LivePlatform == model.PlatformVideoSDK
}

// CountByMedia はメディア種別ごとのカード数を返す。
func (v View) CountByMedia() map[MediaKind]int {
	counts := make(map[MediaKind]int, 2)
	for _, c := range v.Cards {
		counts[c.Media.Kind]++
	}
	return counts
}
