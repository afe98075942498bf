package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/caretracker/internal/view"
)

// ClinicalExporterInterface はCSVエクスポートハンドラーが必要とするインターフェース。
type ClinicalExporterInterface interface {
	ExportCSV(ctx context.Context) ([]byte, error)
}

// ClinicalHandler はクリニカルアワーのCSVエクスポートのHTTPハンドラー。
// 管理者限定の認可はルーティング層のガードが先に検査する。
type ClinicalHandler struct {
	exporter ClinicalExporterInterface
	renderer *view.Renderer
}

// NewClinicalHandler はClinicalHandlerを生成する。
func NewClinicalHandler(exporter ClinicalExporterInterface, renderer *view.Renderer) *ClinicalHandler {
	return &ClinicalHandler{exporter: exporter, renderer: renderer}
}

// Export はCSVをダウンロードレスポンスとして返す。
// GET /clinical_hours/export
func (h *ClinicalHandler) Export(w http.ResponseWriter, r *http.Request) {
	csv, err := h.exporter.ExportCSV(r.Context())
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	filename := "clinical_hours_" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(csv)
}
