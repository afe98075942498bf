package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
)

// Gateway はレポートサービスが必要とする外部データサービスのインターフェース。
type Gateway interface {
	Query(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error
	QueryOne(ctx context.Context, resource string, filters gateway.Filters, dest any) error
}

// Service は学生の進捗レポートを組み立てる。
type Service struct {
	gw Gateway
}

// NewService はServiceを生成する。
func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// DomainReportByUserID は指定学生のドメイン別レポートを取得・集約する。
// 進捗行が1件も無い学生には空のレポート列が返る。
func (s *Service) DomainReportByUserID(ctx context.Context, userID string) ([]model.DomainReport, error) {
	var rows []model.CompetencyRecord
	err := s.gw.Query(ctx, "v_domain_progress",
		gateway.Filters{"user_id": userID},
		[]gateway.Order{
			{Column: "code_group"},
			{Column: "code_text"},
		},
		&rows,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to fetch domain progress: %w", err))
	}
	return AggregateDomainReport(rows), nil
}

// ProgressSummaryByUserID は指定学生の進捗サマリー行を取得する。
// サマリー行が無い学生（進捗ビューに未登場）はnilを返す。
func (s *Service) ProgressSummaryByUserID(ctx context.Context, userID string) (*model.ProgressSummary, error) {
	var summary model.ProgressSummary
	err := s.gw.QueryOne(ctx, "v_student_progress", gateway.Filters{"user_id": userID}, &summary)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to fetch progress summary: %w", err))
	}
	return &summary, nil
}
