package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// ClassroomServiceInterface はクラスハンドラーが必要とするサービスインターフェース。
type ClassroomServiceInterface interface {
	List(ctx context.Context) ([]model.Classroom, error)
	FindByID(ctx context.Context, classroomID string) (*model.Classroom, error)
}

// RosterServiceInterface はクラス名簿取得のサービスインターフェース。
type RosterServiceInterface interface {
	ListByClassroom(ctx context.Context, classroomID string) ([]model.Student, error)
}

// classesContent はクラス一覧ページの描画データ。
type classesContent struct {
	Classrooms []model.Classroom
}

// classReportContent はクラスレポートページの描画データ。
type classReportContent struct {
	Classroom *model.Classroom
	Students  []model.Student
}

// ClassroomHandler はクラス一覧・クラスレポートのHTTPハンドラー。
type ClassroomHandler struct {
	classrooms ClassroomServiceInterface
	roster     RosterServiceInterface
	renderer   *view.Renderer
}

// NewClassroomHandler はClassroomHandlerを生成する。
func NewClassroomHandler(classrooms ClassroomServiceInterface, roster RosterServiceInterface, renderer *view.Renderer) *ClassroomHandler {
	return &ClassroomHandler{
		classrooms: classrooms,
		roster:     roster,
		renderer:   renderer,
	}
}

// List はクラス一覧を表示する。
// GET /classes
func (h *ClassroomHandler) List(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.classrooms.List(r.Context())
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	data := pageData(r, "Classes")
	data.Content = classesContent{Classrooms: classrooms}
	h.renderer.Render(w, http.StatusOK, "classes", data)
}

// Report はクラスのメタデータと在籍学生の名簿を表示する。
// GET /classes/report/{classroomID}
func (h *ClassroomHandler) Report(w http.ResponseWriter, r *http.Request) {
	classroomID := chi.URLParam(r, "classroomID")

	classroom, err := h.classrooms.FindByID(r.Context(), classroomID)
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	students, err := h.roster.ListByClassroom(r.Context(), classroomID)
	if err != nil {
		renderAppError(h.renderer, w, r, err)
		return
	}

	data := pageData(r, classroom.ClassName)
	data.Content = classReportContent{
		Classroom: classroom,
		Students:  students,
	}
	h.renderer.Render(w, http.StatusOK, "classReport", data)
}
