package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, session *model.Session, email, password string) error
	Register(ctx context.Context, session *model.Session, input auth.RegisterInput) error
	Logout(ctx context.Context, session *model.Session) error
}

// LoginObserver はログイン試行の観測値の通知先。
type LoginObserver interface {
	RecordLogin(success bool)
}

// AuthHandler はログイン・登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service       AuthServiceInterface
	renderer      *view.Renderer
	sessionConfig middleware.SessionConfig
	observer      LoginObserver
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer *view.Renderer, sessionConfig middleware.SessionConfig, observer LoginObserver) *AuthHandler {
	return &AuthHandler{
		service:       service,
		renderer:      renderer,
		sessionConfig: sessionConfig,
		observer:      observer,
	}
}

// ShowLogin はログインフォームを表示する。
// GET /login
// 認証済みユーザーはホームへリダイレクトする。
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if session := middleware.SessionFromContext(r.Context()); session.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, "login", pageData(r, "Log in"))
}

// Login はログイン送信を処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	err := h.service.Login(r.Context(), session, email, password)
	if h.observer != nil {
		h.observer.RecordLogin(err == nil)
	}
	if err != nil {
		appErr, ok := model.AsAppError(err)
		if ok && appErr.Kind == model.KindAuthenticationFailed {
			// 送信値（秘匿値以外）を書き戻して再表示する
			data := pageData(r, "Log in")
			data.Error = appErr.Message
			data.Form["email"] = email
			h.renderer.Render(w, http.StatusUnauthorized, "login", data)
			return
		}
		renderAppError(h.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowRegister は登録フォームを表示する。
// GET /register
// 認証済みユーザーはホームへリダイレクトする。
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if session := middleware.SessionFromContext(r.Context()); session.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, "register", pageData(r, "Register"))
}

// Register は登録送信を処理する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	input := auth.RegisterInput{
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		JoinCode:  r.PostFormValue("joinCode"),
	}

	if err := h.service.Register(r.Context(), session, input); err != nil {
		appErr, ok := model.AsAppError(err)
		if ok && appErr.Kind == model.KindValidationFailed {
			data := pageData(r, "Register")
			data.Error = appErr.Message
			data.Form["email"] = input.Email
			data.Form["firstName"] = input.FirstName
			data.Form["lastName"] = input.LastName
			data.Form["joinCode"] = input.JoinCode
			h.renderer.Render(w, http.StatusBadRequest, "register", data)
			return
		}
		renderAppError(h.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はログアウトを処理する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	if err := h.service.Logout(r.Context(), session); err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	middleware.ExpireSessionCookie(w, h.sessionConfig)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
