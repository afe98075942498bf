// Package student は学生一覧と名簿の取得を提供する。
package student

import (
	"context"
	"fmt"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
)

// Gateway は学生サービスが必要とする外部データサービスのインターフェース。
type Gateway interface {
	Query(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error
}

// Service は学生の一覧取得を提供する。
type Service struct {
	gw Gateway
}

// NewService はServiceを生成する。
func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// List は全学生を氏名の昇順で返す。
func (s *Service) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := s.gw.Query(ctx, "v_students", nil,
		[]gateway.Order{{Column: "full_name"}},
		&students,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to list students: %w", err))
	}
	return students, nil
}

// ListByClassroom は指定クラスに在籍する学生を返す。
func (s *Service) ListByClassroom(ctx context.Context, classroomID string) ([]model.Student, error) {
	var students []model.Student
	err := s.gw.Query(ctx, "v_students_in_class",
		gateway.Filters{"classroom_id": classroomID},
		[]gateway.Order{{Column: "full_name"}},
		&students,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to list students in class: %w", err))
	}
	return students, nil
}
