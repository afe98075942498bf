// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// pageData はリクエストからレイアウト共通の描画データを組み立てる。
func pageData(r *http.Request, title string) view.PageData {
	data := view.PageData{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Form:      map[string]string{},
	}
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		data.User = session.CurrentUser()
	}
	return data
}

// renderAppError はAppErrorをHTTPステータスへ写像してエラーページを描画する。
// リモート障害の詳細はログにのみ出し、ユーザーには一般メッセージを返す。
func renderAppError(renderer *view.Renderer, w http.ResponseWriter, r *http.Request, err error) {
	data := pageData(r, "Error")

	appErr, ok := model.AsAppError(err)
	if !ok {
		slog.Error("unhandled error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		renderer.RenderError(w, http.StatusInternalServerError, data, err.Error())
		return
	}

	status := appErr.HTTPStatus()
	if status >= 500 {
		slog.Error("remote failure",
			slog.String("path", r.URL.Path),
			slog.String("error", appErr.Error()),
		)
		renderer.RenderError(w, status, data, appErr.Error())
		return
	}

	if appErr.Kind == model.KindNotFound {
		renderer.RenderNotFound(w, data)
		return
	}

	data.Error = appErr.Message
	data.Title = "Error"
	renderer.Render(w, status, "error", data)
}
