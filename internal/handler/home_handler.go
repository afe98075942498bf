package handler

import (
	"net/http"

	"github.com/hitoshi/caretracker/internal/view"
)

// HomeHandler はホーム・静的ページのHTTPハンドラー。
type HomeHandler struct {
	renderer *view.Renderer
}

// NewHomeHandler はHomeHandlerを生成する。
func NewHomeHandler(renderer *view.Renderer) *HomeHandler {
	return &HomeHandler{renderer: renderer}
}

// Home はダッシュボードを表示する。匿名ユーザーにはデフォルト表示、
// 認証済みユーザーにはロールに応じたセクションが描画される。
// GET /
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "index", pageData(r, "Home"))
}

// About は概要ページを表示する。
// GET /about
func (h *HomeHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "about", pageData(r, "About"))
}

// Accreditation は認証評価レポートページを表示する。
// GET /accreditation_report
func (h *HomeHandler) Accreditation(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "accreditation", pageData(r, "Accreditation Report"))
}

// NotFound は未定義ルートの404ページを表示する。
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderNotFound(w, pageData(r, "Page Not Found"))
}
