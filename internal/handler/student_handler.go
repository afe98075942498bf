package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// StudentServiceInterface は学生ハンドラーが必要とするサービスインターフェース。
type StudentServiceInterface interface {
	List(ctx context.Context) ([]model.Student, error)
}

// ReportServiceInterface はレポート取得のサービスインターフェース。
type ReportServiceInterface interface {
	DomainReportByUserID(ctx context.Context, userID string) ([]model.DomainReport, error)
	ProgressSummaryByUserID(ctx context.Context, userID string) (*model.ProgressSummary, error)
}

// studentsContent は学生一覧ページの描画データ。
type studentsContent struct {
	Students []model.Student
}

// reportContent は進捗レポートページの描画データ。
type reportContent struct {
	StudentName string
	Summary     *model.ProgressSummary
	Domains     []model.DomainReport
}

// StudentHandler は学生一覧・進捗レポートのHTTPハンドラー。
type StudentHandler struct {
	students StudentServiceInterface
	reports  ReportServiceInterface
	renderer *view.Renderer
}

// NewStudentHandler はStudentHandlerを生成する。
func NewStudentHandler(students StudentServiceInterface, reports ReportServiceInterface, renderer *view.Renderer) *StudentHandler {
	return &StudentHandler{
		students: students,
		reports:  reports,
		renderer: renderer,
	}
}

// List は学生一覧を表示する。
// GET /students
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	data := pageData(r, "Students")
	data.Content = studentsContent{Students: students}
	h.renderer.Render(w, http.StatusOK, "students", data)
}

// Report は指定学生の進捗レポートを表示する。
// GET /students/report/{userID}
// 所有者チェックはこの層では行わない。行レベルの可視性は
// バックストア側のポリシーに委ねる。
func (h *StudentHandler) Report(w http.ResponseWriter, r *http.Request) {
	h.renderReport(w, r, chi.URLParam(r, "userID"))
}

// SelfReport は自分自身の進捗レポートを表示する。
// GET /students/report
func (h *StudentHandler) SelfReport(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	user := session.CurrentUser()
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.renderReport(w, r, user.UserID)
}

// renderReport はドメイン別レポートと進捗サマリーを取得して描画する。
func (h *StudentHandler) renderReport(w http.ResponseWriter, r *http.Request, userID string) {
	domains, err := h.reports.DomainReportByUserID(r.Context(), userID)
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	summary, err := h.reports.ProgressSummaryByUserID(r.Context(), userID)
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	content := reportContent{
		Summary: summary,
		Domains: domains,
	}
	if summary != nil {
		content.StudentName = summary.FullName
	}

	data := pageData(r, "Progress Report")
	data.Content = content
	h.renderer.Render(w, http.StatusOK, "studentReport", data)
}
