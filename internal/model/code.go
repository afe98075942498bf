// Package model はドメインモデルを定義する。
package model

// ConfigCode は分類コード（ドロップダウンコード）を表す。
// 管理者の操作で作成・削除され、作成後の更新は行われない。
type ConfigCode struct {
	CodeID      string
	CodeType    string
	CodeGroup   string // code_type = "domain" の場合のみ必須
	CodeText    string
	CodeMeaning string
}

// Classroom はクラス（開講科目）を表す。
type Classroom struct {
	ClassroomID string `json:"classroom_id"`
	ClassName   string `json:"class_name"`
	Semester    string `json:"semester"`
	ClassNumber string `json:"class_number"`
}
