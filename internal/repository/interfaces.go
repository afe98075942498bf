// Package repository はデータ永続化のインターフェースを定義する。
// このアプリケーションが自前で永続化するのはセッションのみで、
// ドメインデータは外部データサービス（gatewayパッケージ）が所有する。
package repository

import (
	"context"

	"github.com/hitoshi/caretracker/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。
	// 期限切れまたは不存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Save はセッションのペイロード（ユーザー・トークン）を永続化する。
	// レスポンス送信前に呼び出し、メモリ上の変更とストアの内容を一致させる。
	Save(ctx context.Context, session *model.Session) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
