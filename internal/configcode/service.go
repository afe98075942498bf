// Package configcode は分類コード（ドロップダウンコード）の管理を提供する。
package configcode

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
)

// Gateway はコードストアが必要とする外部データサービスのインターフェース。
type Gateway interface {
	Query(ctx context.Context, resource string, filters gateway.Filters, ordering []gateway.Order, dest any) error
	Insert(ctx context.Context, resource string, payload any, dest any) error
	Delete(ctx context.Context, resource string, filters gateway.Filters) error
}

// TextSanitizer はフォーム入力の正規化インターフェース。
type TextSanitizer interface {
	Sanitize(input string) string
}

// Service は分類コードの一覧・作成・削除を提供する。
// ロール検査は行わない。削除の管理者限定は認可ガード側の責務で、
// バックストア側のポリシーと二層で守る。
type Service struct {
	gw        Gateway
	sanitizer TextSanitizer
}

// NewService はServiceを生成する。
func NewService(gw Gateway, sanitizer TextSanitizer) *Service {
	return &Service{gw: gw, sanitizer: sanitizer}
}

// codeRow はdropdown_codesテーブルの行。
type codeRow struct {
	CodeID      string `json:"code_id"`
	CodeType    string `json:"code_type"`
	CodeGroup   string `json:"code_group"`
	CodeText    string `json:"code_text"`
	CodeMeaning string `json:"code_meaning"`
}

func (r *codeRow) toModel() model.ConfigCode {
	return model.ConfigCode{
		CodeID:      r.CodeID,
		CodeType:    r.CodeType,
		CodeGroup:   r.CodeGroup,
		CodeText:    r.CodeText,
		CodeMeaning: r.CodeMeaning,
	}
}

// List は全分類コードを作成日時の新しい順で返す。
func (s *Service) List(ctx context.Context) ([]model.ConfigCode, error) {
	var rows []codeRow
	err := s.gw.Query(ctx, "dropdown_codes", nil,
		[]gateway.Order{{Column: "created_at", Descending: true}},
		&rows,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to list config codes: %w", err))
	}

	codes := make([]model.ConfigCode, 0, len(rows))
	for i := range rows {
		codes = append(codes, rows[i].toModel())
	}
	return codes, nil
}

// CreateInput は分類コード作成フォームの入力。
type CreateInput struct {
	CodeType    string
	CodeGroup   string
	CodeText    string
	CodeMeaning string
}

// Validate は必須フィールドを検証する。
// code_groupはcode_typeが"domain"の場合のみ必須。
func (in CreateInput) Validate() *model.AppError {
	var missing []string
	if strings.TrimSpace(in.CodeType) == "" {
		missing = append(missing, "Code type")
	}
	if strings.TrimSpace(in.CodeText) == "" {
		missing = append(missing, "Code")
	}
	if strings.TrimSpace(in.CodeType) == "domain" && strings.TrimSpace(in.CodeGroup) == "" {
		missing = append(missing, "Code group")
	}
	if len(missing) > 0 {
		return model.NewValidationFailedError(missing)
	}
	return nil
}

// Create は分類コードを1件作成する。コードIDはここで採番する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.ConfigCode, error) {
	if appErr := input.Validate(); appErr != nil {
		return nil, appErr
	}

	payload := codeRow{
		CodeID:      uuid.NewString(),
		CodeType:    s.sanitizer.Sanitize(input.CodeType),
		CodeGroup:   s.sanitizer.Sanitize(input.CodeGroup),
		CodeText:    s.sanitizer.Sanitize(input.CodeText),
		CodeMeaning: s.sanitizer.Sanitize(input.CodeMeaning),
	}

	var created codeRow
	if err := s.gw.Insert(ctx, "dropdown_codes", payload, &created); err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to create config code: %w", err))
	}

	code := created.toModel()
	return &code, nil
}

// Delete は指定IDの分類コードを削除する。
// 呼び出し側で管理者限定の認可検査を済ませていること。
func (s *Service) Delete(ctx context.Context, codeID string) error {
	if strings.TrimSpace(codeID) == "" {
		return model.NewValidationFailedError([]string{"Code ID"})
	}

	err := s.gw.Delete(ctx, "dropdown_codes", gateway.Filters{"code_id": codeID})
	if err != nil {
		return model.NewRemoteFailureError(fmt.Errorf("failed to delete config code: %w", err))
	}
	return nil
}
