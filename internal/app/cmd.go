package app

// Command はliveclassバイナリの起動モードを表す。
type Command string

const (
	// CommandServe はライブ授業一覧ページとJSON APIを配信するWebサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker は期限切れログインセッションを定期削除するワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はログインセッション用テーブルのマイグレーションを実行する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のWebサーバーの /health を叩いて終了する。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

var commandRoles = map[Command]string{
	CommandServe:       "live-class web server",
	CommandWorker:      "expired session cleanup",
	CommandMigrate:     "schema migration",
	CommandHealthcheck: "container healthcheck",
}

// Role は起動ログに出す役割名を返す。
func (c Command) Role() string {
	if role, ok := commandRoles[c]; ok {
		return role
	}
	return commandRoles[CommandServe]
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	cmd := Command(args[0])
	if _, ok := commandRoles[cmd]; !ok {
		return CommandServe
	}
	return cmd
}
