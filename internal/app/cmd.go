package app

// Command はeduportalバイナリのサブコマンド。
type Command string

const (
	// CommandServe はBFFのHTTPサーバーを起動する。引数なしの場合もこれになる。
	CommandServe Command = "serve"
	// CommandWorker は期限切れポータルセッションを SESSION_CLEANUP_INTERVAL ごとに削除し続ける。
	// バックエンドAPIには接続しない。
	CommandWorker Command = "worker"
	// CommandMigrate は portal_sessions テーブルのマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はローカルの /health を叩いて終了コードで結果を返す。
	// 設定を読まないため、distrolessコンテナのHEALTHCHECKから呼べる。
	CommandHealthcheck Command = "healthcheck"
)

// commands はParseCommandが受け付けるサブコマンド。
var commands = map[Command]bool{
	CommandServe:       true,
	CommandWorker:      true,
	CommandMigrate:     true,
	CommandHealthcheck: true,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 2番目以降の引数は無視し、空または未知の値はCommandServeとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd := Command(args[0]); commands[cmd] {
		return cmd
	}
	return CommandServe
}
