// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/caretracker/internal/model"
)

const sessionCookieName = "caretracker_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionStore はセッションの検索・作成に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionStore interface {
	FindSession(ctx context.Context, id string) (*model.Session, error)
	CreateSession(ctx context.Context) (*model.Session, error)
}

// SessionConfig はセッションCookieの設定。
type SessionConfig struct {
	CookieSecure bool
	CookieDomain string
	MaxAge       int
}

// SessionObserver はセッション作成イベントの通知先。
type SessionObserver interface {
	RecordSessionCreated()
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを解決するミドルウェアを返す。
// Cookieが無い、またはセッションが期限切れの場合は匿名セッションを新規作成し、
// Cookieを再発行する。解決したセッションはリクエストコンテキストに注入される。
// 認証の要否はここでは判定しない。ロール検査はハンドラー側のガードが行う。
func NewSessionMiddleware(store SessionStore, config SessionConfig, observer SessionObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *model.Session

			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				session, err = store.FindSession(r.Context(), cookie.Value)
				if err != nil {
					slog.Error("failed to find session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
			}

			// Cookie未保持・期限切れは匿名セッションで継続する
			if session == nil {
				created, err := store.CreateSession(r.Context())
				if err != nil {
					slog.Error("failed to create session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				session = created
				if observer != nil {
					observer.RecordSessionCreated()
				}

				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    session.ID,
					Path:     "/",
					Domain:   config.CookieDomain,
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過していないリクエストではnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// ExpireSessionCookie はセッションCookieを失効させる。ログアウト時に使用する。
func ExpireSessionCookie(w http.ResponseWriter, config SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
