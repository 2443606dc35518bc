package render

import "net/url"

const (
	// embedBaseURL は埋め込みプレーヤーのURLの接頭辞。
	embedBaseURL = "https://www.youtube.com/embed/"
	// embedQuery は埋め込みプレーヤーの固定クエリ。
	embedQuery = "rel=0&modestbranding=1"
	// DefaultPlayerTitle はタイトル未指定時のプレーヤーのタイトル。
	DefaultPlayerTitle = "YouTube video player"
)

// EmbedPlayer は16:9の埋め込み動画プレーヤー。
type EmbedPlayer struct {
	VideoID string
	Title   string
	URL     string
}

// NewEmbedPlayer は動画IDとタイトルから埋め込みプレーヤーを生成する。
// タイトルが空の場合はDefaultPlayerTitleを使用する。
func NewEmbedPlayer(videoID, title string) EmbedPlayer {
	if title == "" {
		title = DefaultPlayerTitle
	}
	return EmbedPlayer{
		VideoID: videoID,
		Title:   title,
		URL:     EmbedURL(videoID),
	}
}

// EmbedURL は動画IDから埋め込みURLを組み立てる。
func EmbedURL(videoID string) string {
	return embedBaseURL + url.PathEscape(videoID) + "?" + embedQuery
}
