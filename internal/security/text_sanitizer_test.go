package security

import "testing"

// TextSanitizerはインターフェースを満たすことを検証
func TestTextSanitizer_ImplementsInterface(t *testing.T) {
	var _ TextSanitizerService = (*textSanitizer)(nil)
}

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Aki Tanaka", "Aki Tanaka"},
		{"空文字列は空文字列", "", ""},
		{"scriptタグを除去", `<script>alert("x")</script>Aki`, "Aki"},
		{"インラインマークアップを除去", "<b>Domain</b> 7", "Domain 7"},
		{"前後の空白をトリム", "  Yui Sato  ", "Yui Sato"},
		{"イベント属性付きタグを除去", `<img src=x onerror=alert(1)>name`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 冪等性: サニタイズ済みの出力を再度サニタイズしても変化しないことを検証
func TestTextSanitizer_Sanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	inputs := []string{"Aki Tanaka", `<script>x</script>name`, "  spaced  "}
	for _, input := range inputs {
		once := s.Sanitize(input)
		twice := s.Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
