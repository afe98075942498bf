// Package model はドメインモデルを定義する。
package model

// CompetencyRecord は外部データサービスが返すフラットな進捗行を表す。
// Completedは真偽値・数値・文字列のいずれでも届きうるため、
// 集約時に厳密な真偽値へ正規化する（report.CoerceCompleted参照）。
// 日付列はリモート側の表現をそのまま保持し、整形は集約側が行う。
type CompetencyRecord struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	DomainLabel    string `json:"code_group"`
	CompetencyText string `json:"code_text"`
	Completed      any    `json:"completed"`
	Iterations     int    `json:"iterations"`
	CompletionDate string `json:"completion_date"`
	MostRecent     string `json:"most_recent"`
}

// CompetencyEntry はドメイン別レポート内の1コンピテンシーを表す。
// 日付は"YYYY/MM/DD"形式の文字列で、欠損・解釈不能な入力は空文字列になる。
type CompetencyEntry struct {
	Text           string
	Complete       bool
	Iterations     int
	CompletionDate string
	MostRecent     string
}

// DomainReport はドメイン単位に集約されたレポートを表す。
// 永続化されず、リクエストごとにCompetencyRecord列から再構築される。
type DomainReport struct {
	Domain       string
	Competencies []CompetencyEntry
}

// ProgressSummary は学生1人の進捗サマリー行を表す。
type ProgressSummary struct {
	UserID        string `json:"user_id"`
	FullName      string `json:"full_name"`
	Completed     int    `json:"completed"`
	Total         int    `json:"total"`
	ProgressLabel string `json:"progress_label"`
}

// Student は学生一覧・クラス名簿の1行を表す。
type Student struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}
