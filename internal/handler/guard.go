package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/view"
)

// requireRole は認可ガードをルート単位に適用するミドルウェアを返す。
// 拒否はリモート呼び出しへ到達する前に確定し、副作用を発生させない。
// 未認証セッションはログインページへ誘導し、権限不足は403を描画する。
func requireRole(renderer *view.Renderer, requirement auth.Requirement) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := middleware.SessionFromContext(r.Context())

			decision := auth.Authorize(session, requirement)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if session == nil || !session.IsAuthenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			slog.Warn("authorization denied",
				slog.String("path", r.URL.Path),
				slog.String("requirement", requirement.String()),
				slog.String("reason", decision.Reason),
				slog.Int("role_level", int(session.CurrentRole())),
			)

			data := pageData(r, "Forbidden")
			data.Error = "You do not have permission to perform this action."
			renderer.Render(w, http.StatusForbidden, "error", data)
		})
	}
}
