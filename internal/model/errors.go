// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind はアプリケーションエラーの分類を表す。
type ErrorKind string

const (
	// KindAuthenticationFailed は認証失敗を表す。
	// 資格情報不正とプロフィール未作成は区別せず同一に扱う
	// （アカウント列挙の手がかりを漏らさないため）。
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	// KindAuthorizationDenied は権限不足を表す。
	KindAuthorizationDenied ErrorKind = "authorization_denied"
	// KindNotFound は参照先エンティティの不在を表す。
	KindNotFound ErrorKind = "not_found"
	// KindValidationFailed は必須フィールドの欠落・不正を表す。
	KindValidationFailed ErrorKind = "validation_failed"
	// KindRemoteFailure は外部データサービスの到達不能・予期しない失敗を表す。
	KindRemoteFailure ErrorKind = "remote_failure"
	// KindPartialSuccess は主処理成功後の副次的リモート呼び出しの失敗を表す。
	// 主処理の結果は確定し、失敗はログにのみ記録される。
	KindPartialSuccess ErrorKind = "partial_success"
)

// AppError は各コンポーネント契約が返す明示的なエラー型。
// throwベースの制御フローの代わりに、呼び出し側が種別で分岐する。
type AppError struct {
	Kind    ErrorKind
	Message string   // ユーザーに表示してよいメッセージ
	Fields  []string // ValidationFailed時の個別メッセージ
	cause   error    // サーバーサイドログ専用。ユーザーには出さない
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap はラップされた原因エラーを返す。
func (e *AppError) Unwrap() error {
	return e.cause
}

// HTTPStatus はエラー種別に対応するHTTPステータスコードを返す。
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AuthFailedMessage は認証失敗時の固定メッセージ。
// どのサブケースで失敗したかに関わらず常にこの文言を返す。
const AuthFailedMessage = "Invalid email or password."

// NewAuthenticationFailedError は認証失敗エラーを生成する。
// causeはログ専用で、レスポンスには固定メッセージのみが載る。
func NewAuthenticationFailedError(cause error) *AppError {
	return &AppError{
		Kind:    KindAuthenticationFailed,
		Message: AuthFailedMessage,
		cause:   cause,
	}
}

// NewAuthorizationDeniedError は権限不足エラーを生成する。
func NewAuthorizationDeniedError(reason string) *AppError {
	return &AppError{
		Kind:    KindAuthorizationDenied,
		Message: reason,
	}
}

// NewNotFoundError は参照先不在エラーを生成する。
func NewNotFoundError(what string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s was not found.", what),
	}
}

// NewValidationFailedError はバリデーションエラーを生成する。
// fieldsには欠落したフィールドの表示名を渡す。
func NewValidationFailedError(fields []string) *AppError {
	return &AppError{
		Kind:    KindValidationFailed,
		Message: fmt.Sprintf("Please fill out: %s.", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// NewRemoteFailureError は外部データサービス起因の失敗エラーを生成する。
// 生のバックエンドエラーはcauseに保持し、ユーザー向けには汎用メッセージを返す。
func NewRemoteFailureError(cause error) *AppError {
	return &AppError{
		Kind:    KindRemoteFailure,
		Message: "Something went wrong. Please try again later.",
		cause:   cause,
	}
}

// NewPartialSuccessError は副次処理の失敗を生成する。
// 呼び出し側は主処理を巻き戻さず、このエラーをログに記録するのみとする。
func NewPartialSuccessError(step string, cause error) *AppError {
	return &AppError{
		Kind:    KindPartialSuccess,
		Message: fmt.Sprintf("secondary step %q failed", step),
		cause:   cause,
	}
}

// AsAppError はエラーチェーンからAppErrorを取り出す。
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind はエラーが指定種別のAppErrorかを判定する。
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}
