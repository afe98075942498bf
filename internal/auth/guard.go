package auth

import (
	"fmt"

	"github.com/hitoshi/caretracker/internal/model"
)

// requirementKind は認可要件の種別。
type requirementKind int

const (
	requireAuthenticated requirementKind = iota
	requireRoleAtLeast
	requireRoleExactly
)

// Requirement は操作が要求する認可要件を表す。
// Authenticated / RoleAtLeast / RoleExactly のいずれかのコンストラクタで生成する。
type Requirement struct {
	kind requirementKind
	role model.Role
}

// Authenticated は認証済みであることのみを要求する。
func Authenticated() Requirement {
	return Requirement{kind: requireAuthenticated}
}

// RoleAtLeast は指定ロール以上の権限を要求する。
func RoleAtLeast(role model.Role) Requirement {
	return Requirement{kind: requireRoleAtLeast, role: role}
}

// RoleExactly は指定ロールと完全一致する権限を要求する。
func RoleExactly(role model.Role) Requirement {
	return Requirement{kind: requireRoleExactly, role: role}
}

// String は要件の可読表現を返す。Deny理由のログに使用する。
func (r Requirement) String() string {
	switch r.kind {
	case requireRoleAtLeast:
		return fmt.Sprintf("role at least %s", r.role.Label())
	case requireRoleExactly:
		return fmt.Sprintf("role exactly %s", r.role.Label())
	default:
		return "authenticated"
	}
}

// Decision は認可判定の結果を表す。
type Decision struct {
	Allowed bool
	Reason  string // Deny時の理由。ユーザーには表示せずログに残す
}

// Allow は許可判定。
var Allow = Decision{Allowed: true}

// Deny は理由付きの拒否判定を生成する。
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize はセッションが要件を満たすかを判定する。
//
// 判定はセッションにキャッシュされたロールに対して行い、リモート呼び出しは
// 一切発生しない。最新のロールが必要な呼び出し側はSyncProfileで再同期すること。
// 未認証セッションは最低権限として扱われ、すべての要件でDenyになる。
// Denyを受けた呼び出し側は、リモート呼び出しを発行する前に処理を打ち切ること。
func Authorize(session *model.Session, req Requirement) Decision {
	if !session.IsAuthenticated() {
		return Deny("authentication required")
	}

	role := session.CurrentRole()
	switch req.kind {
	case requireRoleAtLeast:
		if !role.AtLeast(req.role) {
			return Deny(fmt.Sprintf("requires %s, session has %s", req.String(), role.Label()))
		}
	case requireRoleExactly:
		if role != req.role {
			return Deny(fmt.Sprintf("requires %s, session has %s", req.String(), role.Label()))
		}
	}

	return Allow
}
