package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	SyncProfile(ctx context.Context, session *model.Session) (*model.UserIdentity, error)
	UpdateProfile(ctx context.Context, session *model.Session, firstName, lastName string) (*model.UserIdentity, error)
}

// ProfileHandler はプロフィール閲覧・更新のHTTPハンドラー。
type ProfileHandler struct {
	service  ProfileServiceInterface
	renderer *view.Renderer
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, renderer *view.Renderer) *ProfileHandler {
	return &ProfileHandler{service: service, renderer: renderer}
}

// Show はプロフィールページを表示する。
// GET /profile
// 表示前にリモートの最新プロフィールでセッションを再同期し、
// 陳腐化したロールでの描画を防ぐ。
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	identity, err := h.service.SyncProfile(r.Context(), session)
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	data := pageData(r, "Your Profile")
	data.User = identity
	h.renderer.Render(w, http.StatusOK, "profile", data)
}

// Update はプロフィール更新を処理する。
// POST /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	firstName := r.PostFormValue("firstName")
	lastName := r.PostFormValue("lastName")

	identity, err := h.service.UpdateProfile(r.Context(), session, firstName, lastName)
	if err != nil {
		appErr, ok := model.AsAppError(err)
		if ok && appErr.Kind == model.KindValidationFailed {
			data := pageData(r, "Your Profile")
			data.Error = appErr.Message
			h.renderer.Render(w, http.StatusBadRequest, "profile", data)
			return
		}
		renderAppError(h.renderer, w, r, err)
		return
	}

	data := pageData(r, "Your Profile")
	data.User = identity
	data.Success = "Profile updated."
	h.renderer.Render(w, http.StatusOK, "profile", data)
}
