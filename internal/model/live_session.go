package model

// Platform はライブセッションの配信方式を表す判別子。
type Platform string

const (
	// PlatformVideoSDK はVideoSDKによる双方向セッション。
	PlatformVideoSDK Platform = "videosdk"
	// PlatformYouTube はYouTubeによる配信セッション。
	PlatformYouTube Platform = "youtube"
)

// LiveSession はバックエンドから受け取るライブ授業1件を表す。
// 受信後は変更しない値オブジェクトとして扱う。
type LiveSession struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	TeacherName     string   `json:"teacher_name"`
	LivePlatform    Platform `json:"live_platform"`
	YouTubeVideoID  *string  `json:"youtube_video_id,omitempty"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
}

// VideoID はYouTube動画IDを返す。未設定の場合は空文字列を返す。
func (s LiveSession) VideoID() string {
	if s.YouTubeVideoID == nil {
		return ""
	}
	return *s.YouTubeVideoID
}

// SessionList はバックエンドが返した順序のままのライブセッション一覧。
// クライアント側での並べ替えは行わない。
type SessionList []LiveSession
