package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/classroom"
	"github.com/hitoshi/caretracker/internal/clinical"
	"github.com/hitoshi/caretracker/internal/config"
	"github.com/hitoshi/caretracker/internal/configcode"
	"github.com/hitoshi/caretracker/internal/database"
	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/handler"
	"github.com/hitoshi/caretracker/internal/logger"
	"github.com/hitoshi/caretracker/internal/metrics"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/report"
	"github.com/hitoshi/caretracker/internal/repository"
	"github.com/hitoshi/caretracker/internal/security"
	"github.com/hitoshi/caretracker/internal/student"
	"github.com/hitoshi/caretracker/internal/view"
	"github.com/hitoshi/caretracker/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, false)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 開発モードではDebugレベルまで出力する
	if cfg.Development {
		logger.SetupDefault(w, true)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はWebサーバーモードで起動する。
// セッションストアDBを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. セッションストアDBへの接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. リモートデータゲートウェイクライアントの初期化
	gatewayClient := gateway.NewClient(
		&http.Client{Timeout: cfg.GatewayTimeout},
		cfg.GatewayURL, cfg.GatewayAnonKey,
		slog.Default(), collector,
	)

	// 5. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()
	egressGuard := security.NewEgressGuard()

	// 6. ドメインサービスの初期化
	authService := auth.NewService(
		gatewayClient, sessionRepo, sanitizer,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	reportService := report.NewService(gatewayClient)
	studentService := student.NewService(gatewayClient)
	classroomService := classroom.NewService(gatewayClient)
	configService := configcode.NewService(gatewayClient, sanitizer)

	clinicalExporter, err := clinical.NewExporter(
		egressGuard, cfg.ClinicalExportURL, cfg.GatewayServiceRoleKey,
		cfg.GatewayTimeout, slog.Default(),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize clinical exporter: %w", err)
	}

	// 7. テンプレートレンダラーの初期化
	renderer, err := view.NewRenderer(slog.Default(), cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	sessionConfig := middleware.SessionConfig{
		CookieSecure: cfg.CookieSecure,
		CookieDomain: cfg.CookieDomain,
		MaxAge:       cfg.SessionMaxAge,
	}

	router := handler.NewRouter(handler.RouterDeps{
		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		SessionStore:  authService,
		SessionConfig: sessionConfig,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:     rateLimiter,
		Logger:          slog.Default(),
		RequestObserver: collector,
		SessionObserver: collector,

		Renderer: renderer,

		AuthService:      authService,
		ProfileService:   authService,
		StudentService:   studentService,
		ReportService:    reportService,
		ClassroomService: classroomService,
		RosterService:    studentService,
		ConfigService:    configService,
		ClinicalExporter: clinicalExporter,
		LoginObserver:    collector,
	})

	// 9. バックグラウンドジョブ（期限切れセッションの定期削除）
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default())
	go cleanupJob.Start(jobCtx)

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down web server...")
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
