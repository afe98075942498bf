package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// HealthChecker はDB疎通確認に必要なインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ミドルウェア依存
	SessionStore    middleware.SessionStore
	SessionConfig   middleware.SessionConfig
	CSRFConfig      middleware.CSRFConfig
	RateLimiter     *middleware.RateLimiter
	Logger          *slog.Logger
	RequestObserver middleware.RequestObserver
	SessionObserver middleware.SessionObserver

	// 描画
	Renderer *view.Renderer

	// サービス
	AuthService      AuthServiceInterface
	ProfileService   ProfileServiceInterface
	StudentService   StudentServiceInterface
	ReportService    ReportServiceInterface
	ClassroomService ClassroomServiceInterface
	RosterService    RosterServiceInterface
	ConfigService    ConfigCodeServiceInterface
	ClinicalExporter ClinicalExporterInterface
	LoginObserver    LoginObserver
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → RateLimit(General) → Session → CSRF
//
// 認可はルート単位のガードで強制する。拒否はハンドラー本体
// （とリモート呼び出し）に到達する前に確定する。
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.RequestObserver))
	r.Use(deps.RateLimiter.GeneralMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionConfig, deps.SessionObserver))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	homeHandler := NewHomeHandler(deps.Renderer)
	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.SessionConfig, deps.LoginObserver)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.Renderer)
	studentHandler := NewStudentHandler(deps.StudentService, deps.ReportService, deps.Renderer)
	classroomHandler := NewClassroomHandler(deps.ClassroomService, deps.RosterService, deps.Renderer)
	configHandler := NewConfigCodeHandler(deps.ConfigService, deps.Renderer)
	clinicalHandler := NewClinicalHandler(deps.ClinicalExporter, deps.Renderer)

	// 運用エンドポイント。Dockerヘルスチェックと監視スクレイプ用。
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 公開ページ
	r.Get("/", homeHandler.Home)
	r.Get("/about", homeHandler.About)
	r.Get("/accreditation_report", homeHandler.Accreditation)

	// 認証フロー。POSTは総当たり対策のレート制限を追加で通す。
	r.Get("/login", authHandler.ShowLogin)
	r.Get("/register", authHandler.ShowRegister)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
	})
	r.Post("/logout", authHandler.Logout)

	// 認証必須ページ
	r.Group(func(r chi.Router) {
		r.Use(requireRole(deps.Renderer, auth.Authenticated()))

		r.Get("/profile", profileHandler.Show)
		r.Post("/profile", profileHandler.Update)

		r.Get("/students", studentHandler.List)
		r.Get("/students/report", studentHandler.SelfReport)
		r.Get("/students/report/{userID}", studentHandler.Report)

		r.Get("/classes", classroomHandler.List)
		r.Get("/classes/report/{classroomID}", classroomHandler.Report)
	})

	// 分類コード設定。閲覧・作成はセッションがあれば許可し、
	// 削除のみ管理者限定とする（バックストア側ポリシーとの二層防御）。
	r.Get("/caretrackerconfig", configHandler.Show)
	r.Post("/add_config", configHandler.Add)
	r.Group(func(r chi.Router) {
		r.Use(requireRole(deps.Renderer, auth.RoleExactly(model.RoleManager)))
		r.Post("/caretrackerconfig/delete", configHandler.Delete)
		r.Get("/clinical_hours/export", clinicalHandler.Export)
	})

	r.NotFound(homeHandler.NotFound)

	return r
}

// healthHandler はDB疎通を確認して200/503を返すハンドラーを生成する。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
