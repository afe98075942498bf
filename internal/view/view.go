// Package view は埋め込みテンプレートによるHTMLレンダリングを提供する。
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/hitoshi/caretracker/internal/model"
)

//go:embed templates/*.html templates/pages/*.html
var templateFS embed.FS

// PageData はすべてのページテンプレートに渡される描画データ。
type PageData struct {
	Title     string
	User      *model.UserIdentity
	CSRFToken string
	Error     string
	Success   string
	// Form は検証エラー時にフォームへ書き戻す送信値（秘匿値は含めない）。
	Form map[string]string
	// Content はページ固有の描画データ。
	Content any
}

// Renderer はページ名ごとに事前パース済みのテンプレートセットを保持する。
type Renderer struct {
	pages       map[string]*template.Template
	logger      *slog.Logger
	development bool
}

// NewRenderer は埋め込みテンプレートからRendererを構築する。
// レイアウトと各ページを合成してページ単位のセットを作る。
func NewRenderer(logger *slog.Logger, development bool) (*Renderer, error) {
	base, err := template.New("layout.html").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout templates: %w", err)
	}

	entries, err := fs.ReadDir(templateFS, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("failed to read page templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".html")
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone base template: %w", err)
		}
		set, err = set.ParseFS(templateFS, "templates/pages/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = set
	}

	return &Renderer{
		pages:       pages,
		logger:      logger,
		development: development,
	}, nil
}

// Render は指定ページをレイアウト込みで書き出す。
func (r *Renderer) Render(w http.ResponseWriter, statusCode int, page string, data PageData) {
	set, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown template page", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// ステータス送信前に本体を組み立て、描画失敗時に半端な出力を避ける
	var buf strings.Builder
	if err := set.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprint(w, buf.String())
}

// RenderError はエラーページを描画する。開発モードでのみ詳細を表示する。
func (r *Renderer) RenderError(w http.ResponseWriter, statusCode int, data PageData, detail string) {
	if r.development && detail != "" {
		data.Error = detail
	} else if data.Error == "" {
		data.Error = "Something went wrong. Please try again."
	}
	if data.Title == "" {
		data.Title = "Error"
	}
	r.Render(w, statusCode, "error", data)
}

// RenderNotFound は404ページを描画する。
func (r *Renderer) RenderNotFound(w http.ResponseWriter, data PageData) {
	if data.Title == "" {
		data.Title = "Page Not Found"
	}
	r.Render(w, http.StatusNotFound, "notfound", data)
}
