package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/caretracker/internal/configcode"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// ConfigCodeServiceInterface は分類コードハンドラーが必要とするサービスインターフェース。
type ConfigCodeServiceInterface interface {
	List(ctx context.Context) ([]model.ConfigCode, error)
	Create(ctx context.Context, input configcode.CreateInput) (*model.ConfigCode, error)
	Delete(ctx context.Context, codeID string) error
}

// configCodesContent は設定ページの描画データ。
type configCodesContent struct {
	Codes     []model.ConfigCode
	CanDelete bool
}

// ConfigCodeHandler は分類コードの一覧・作成・削除のHTTPハンドラー。
// 削除の管理者限定はルーティング層のガードで強制される。
type ConfigCodeHandler struct {
	service  ConfigCodeServiceInterface
	renderer *view.Renderer
}

// NewConfigCodeHandler はConfigCodeHandlerを生成する。
func NewConfigCodeHandler(service ConfigCodeServiceInterface, renderer *view.Renderer) *ConfigCodeHandler {
	return &ConfigCodeHandler{service: service, renderer: renderer}
}

// Show は設定ページを表示する。
// GET /caretrackerconfig
func (h *ConfigCodeHandler) Show(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.List(r.Context())
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	h.renderConfigPage(w, r, http.StatusOK, codes, "", nil)
}

// Add は分類コードの作成を処理する。
// POST /add_config
func (h *ConfigCodeHandler) Add(w http.ResponseWriter, r *http.Request) {
	input := configcode.CreateInput{
		CodeType:    r.PostFormValue("codeType"),
		CodeGroup:   r.PostFormValue("codeGroup"),
		CodeText:    r.PostFormValue("code"),
		CodeMeaning: r.PostFormValue("codeMeaning"),
	}

	if _, err := h.service.Create(r.Context(), input); err != nil {
		appErr, ok := model.AsAppError(err)
		if ok && appErr.Kind == model.KindValidationFailed {
			codes, listErr := h.service.List(r.Context())
			if listErr != nil {
				renderAppError(h.renderer, w, r, listErr)
				return
			}

			form := map[string]string{
				"codeType":    input.CodeType,
				"codeGroup":   input.CodeGroup,
				"code":        input.CodeText,
				"codeMeaning": input.CodeMeaning,
			}
			h.renderConfigPage(w, r, http.StatusBadRequest, codes, appErr.Message, form)
			return
		}
		renderAppError(h.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/caretrackerconfig", http.StatusSeeOther)
}

// Delete は分類コードの削除を処理する。
// POST /caretrackerconfig/delete
// 管理者限定の認可はルーティング層のガードが先に検査する。
func (h *ConfigCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	codeID := r.PostFormValue("codeId")

	if err := h.service.Delete(r.Context(), codeID); err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/caretrackerconfig", http.StatusSeeOther)
}

// renderConfigPage は設定ページを組み立てて描画する。
func (h *ConfigCodeHandler) renderConfigPage(w http.ResponseWriter, r *http.Request, status int, codes []model.ConfigCode, errMsg string, form map[string]string) {
	session := middleware.SessionFromContext(r.Context())

	data := pageData(r, "Care Tracker Config")
	data.Error = errMsg
	if form != nil {
		data.Form = form
	}
	data.Content = configCodesContent{
		Codes:     codes,
		CanDelete: session.CurrentRole() == model.RoleManager,
	}
	h.renderer.Render(w, status, "careTrackerConfig", data)
}
