// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ティアを表す。
// 外部データサービスのrole_level（0/1/2）に対応する明示的な列挙型。
// 数値リテラルとの直接比較を避け、順序関係はメソッド経由で判定する。
type Role int

const (
	// RoleNone は未割り当ての権限状態。join codeによる割り当て失敗時等に発生する。
	RoleNone Role = -1
	// RoleStudent は学生権限。
	RoleStudent Role = 0
	// RoleTeacher は教員権限。
	RoleTeacher Role = 1
	// RoleManager は管理者権限。
	RoleManager Role = 2
)

// AtLeast は自身がrequired以上の権限を持つかを判定する。
// RoleNoneはいかなる要求も満たさない。
func (r Role) AtLeast(required Role) bool {
	if r == RoleNone {
		return false
	}
	return r >= required
}

// Label はUI表示用の権限名を返す。
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleTeacher:
		return "Teacher"
	case RoleManager:
		return "Manager"
	default:
		return "Unknown"
	}
}

// UserIdentity はアプリケーション上のユーザープロフィールを表す。
// 真正なデータは外部データサービスのプロフィールレコードであり、
// プロフィール閲覧・更新時に再同期される。
type UserIdentity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	FullName  string
	Role      Role
}

// RemoteTokens は外部認証サービスが発行したトークンの組を表す。
type RemoteTokens struct {
	AccessToken  string
	RefreshToken string
}

// Session はブラウザごとのサーバーサイドセッションを表す。
// Cookieで運ばれるのは不透明なIDのみで、ペイロードはサーバー側に永続化される。
// ハンドラーには値として受け渡し、暗黙の共有参照経由では変更しない。
type Session struct {
	ID        string
	User      *UserIdentity
	Tokens    *RemoteTokens
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CurrentUser はセッションに紐付くユーザーを返す。未認証の場合はnil。
func (s *Session) CurrentUser() *UserIdentity {
	if s == nil {
		return nil
	}
	return s.User
}

// AttachUser はユーザーと認証トークンをアトミックに紐付ける。
// 既存のユーザーが居る場合は上書きされる。部分的な認証状態は観測されない。
func (s *Session) AttachUser(user UserIdentity, tokens RemoteTokens) {
	u := user
	t := tokens
	s.User = &u
	s.Tokens = &t
}

// Clear はセッションから認証状態を完全に取り除く。
func (s *Session) Clear() {
	s.User = nil
	s.Tokens = nil
}

// IsAuthenticated は認証済みセッションかを判定する。
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// CurrentRole はセッションのキャッシュ済み権限を返す。
// 未認証セッションは最低権限（RoleNone）として扱う。
// 最新の権限が必要な場合は呼び出し側がプロフィールを再同期すること。
func (s *Session) CurrentRole() Role {
	if s == nil || s.User == nil {
		return RoleNone
	}
	return s.User.Role
}
