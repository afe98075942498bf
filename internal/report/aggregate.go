// Package report はフラットな進捗行をドメイン別レポートへ集約する。
package report

import (
	"sort"
	"time"

	"github.com/hitoshi/caretracker/internal/model"
)

// domainSortSentinel は数字を含まないドメインラベルを末尾に並べるための番兵値。
const domainSortSentinel = int(^uint(0) >> 1)

// AggregateDomainReport はフラットな進捗行をドメイン単位にグループ化し、
// 表示順に整列したレポート列を返す。空入力は空のレポート列になる。
//
// ドメインの並び順はラベル中に最初に現れる数字列の昇順で、数字を含まない
// ラベル（空文字列含む）はすべての数値付きドメインの後ろに回る。同値の
// 場合はラベル全体の辞書順で決まる。コンピテンシーはドメイン内で
// テキストの昇順に並ぶ。
func AggregateDomainReport(records []model.CompetencyRecord) []model.DomainReport {
	grouped := make(map[string][]model.CompetencyEntry)
	var order []string

	for _, rec := range records {
		label := rec.DomainLabel
		if _, ok := grouped[label]; !ok {
			order = append(order, label)
		}
		grouped[label] = append(grouped[label], model.CompetencyEntry{
			Text:           rec.CompetencyText,
			Complete:       CoerceCompleted(rec.Completed),
			Iterations:     rec.Iterations,
			CompletionDate: formatDate(rec.CompletionDate),
			MostRecent:     formatDate(rec.MostRecent),
		})
	}

	// 上流の整列契約には依存せず、出力を決定的にする
	for _, entries := range grouped {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Text < entries[j].Text
		})
	}

	sort.SliceStable(order, func(i, j int) bool {
		ki, kj := domainSortKey(order[i]), domainSortKey(order[j])
		if ki != kj {
			return ki < kj
		}
		return order[i] < order[j]
	})

	reports := make([]model.DomainReport, 0, len(order))
	for _, label := range order {
		reports = append(reports, model.DomainReport{
			Domain:       label,
			Competencies: grouped[label],
		})
	}
	return reports
}

// domainSortKey はラベル中の最初の数字連続列を整数として取り出す。
// 数字が無い場合は番兵値を返し、そのドメインは末尾に並ぶ。
func domainSortKey(label string) int {
	start := -1
	for i, r := range label {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return parseDigits(label[start:i])
		}
	}
	if start >= 0 {
		return parseDigits(label[start:])
	}
	return domainSortSentinel
}

func parseDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n < 0 {
			// 桁あふれ。番兵値へ丸める
			return domainSortSentinel
		}
	}
	return n
}

// CoerceCompleted はリモート由来のcompleted値を厳密な真偽値へ正規化する。
// ビューの定義変更で真偽値・数値・文字列のいずれでも届いた実績があるため、
// 真値的な値（非ゼロ数値、非空文字列）をすべてtrueとして扱う。
func CoerceCompleted(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		return value != 0
	case int:
		return value != 0
	case string:
		return value != ""
	default:
		return false
	}
}

// dateLayouts はリモートが返す日付表現の候補。先頭から順に試す。
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate は日付文字列を"YYYY/MM/DD"へ整形する。
// 欠損・解釈不能な入力は空文字列を返し、エラーにはしない。
func formatDate(input string) string {
	if input == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Format("2006/01/02")
		}
	}
	return ""
}
