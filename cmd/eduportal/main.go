// Command eduportal は生徒ポータルのBFFサーバーを起動する。
//
// サブコマンド:
//
//	serve        APIサーバー（デフォルト）
//	worker       期限切れセッションのクリーンアップ
//	migrate      データベースマイグレーション
//	healthcheck  /health への疎通確認（Dockerヘルスチェック用）
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/eduportal/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
