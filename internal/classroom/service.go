// Package classroom はクラス一覧とクラス詳細の取得を提供する。
package classroom

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
)

// Gateway はクラスサービスが必要とする外部データサービスのインターフェース。
type Gateway interface {
	Query(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error
	QueryOne(ctx context.Context, resource string, filters gateway.Filters, dest any) error
}

// Service はクラス情報の取得を提供する。
type Service struct {
	gw Gateway
}

// NewService はServiceを生成する。
func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// List は全クラスを返す。
func (s *Service) List(ctx context.Context) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := s.gw.Query(ctx, "v_classrooms", nil,
		[]gateway.Order{{Column: "class_name"}},
		&classrooms,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to list classrooms: %w", err))
	}
	return classrooms, nil
}

// FindByID は指定IDのクラスを返す。存在しない場合はKindNotFound。
func (s *Service) FindByID(ctx context.Context, classroomID string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := s.gw.QueryOne(ctx, "v_classrooms", gateway.Filters{"classroom_id": classroomID}, &classroom)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, model.NewNotFoundError("Class")
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to fetch classroom: %w", err))
	}
	return &classroom, nil
}
