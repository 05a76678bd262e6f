package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/auth"
	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/config"
	"github.com/hitoshi/eduportal/internal/database"
	"github.com/hitoshi/eduportal/internal/handler"
	"github.com/hitoshi/eduportal/internal/logger"
	"github.com/hitoshi/eduportal/internal/metrics"
	"github.com/hitoshi/eduportal/internal/middleware"
	"github.com/hitoshi/eduportal/internal/reference"
	"github.com/hitoshi/eduportal/internal/repository"
	"github.com/hitoshi/eduportal/internal/security"
	"github.com/hitoshi/eduportal/internal/subscription"
	"github.com/hitoshi/eduportal/internal/user"
	"github.com/hitoshi/eduportal/internal/validation"
	"github.com/hitoshi/eduportal/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envと環境変数から設定を読み込む
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映する
	logger.ApplyLevel(w, cfg.LogLevel)

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
		slog.String("backend_base_url", cfg.BackendBaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 参照データキャッシュ
	refCache, closeCache, err := newReferenceCache(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeCache()

	// 3. ルーターの構築
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, stopRouter, err := buildRouter(cfg, db, refCache, reg)
	if err != nil {
		return err
	}
	defer stopRouter()

	// 4. HTTPサーバーの起動
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
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はサービス群をワイヤリングしてHTTPハンドラーを構築する。
// 返されるstop関数はレート制限のクリーンアップgoroutineを停止する。
func buildRouter(cfg *config.Config, db *sql.DB, refCache reference.Cache, reg *prometheus.Registry) (http.Handler, func(), error) {
	collector := metrics.NewCollector(reg)

	// 1. リポジトリとバックエンドクライアント
	sessionRepo := repository.NewPostgresSessionRepo(db)
	backendClient := backend.NewClient(
		&http.Client{Timeout: cfg.BackendTimeout},
		cfg.BackendBaseURL,
		slog.Default(),
	).WithObserver(collector)

	// 2. 入力検証とサニタイズ
	validator, err := validation.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize validator: %w", err)
	}
	sanitizer := security.NewTextSanitizer()

	// 3. ドメインサービス
	authService := auth.NewService(
		backendClient, sessionRepo, validator, sanitizer,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	).WithRecorder(collector)

	loc := cfg.Location()
	userService := user.NewService(handler.NewUserClientFactory(backendClient), validator, sanitizer)
	subService := subscription.NewService(handler.NewSubscriptionClientFactory(backendClient), loc)
	refService := reference.NewService(backendClient, refCache, cfg.ReferenceTTL, slog.Default()).
		WithRecorder(collector)

	// 4. アクセス判定
	resolver := access.NewResolver(userService, subService, slog.Default(),
		access.WithLocation(loc),
		access.WithRecorder(collector),
	)
	navigator := access.NewNavigator(access.Destinations{
		Landing:       cfg.LandingPath,
		Dashboard:     cfg.DashboardPath,
		Profile:       cfg.ProfilePath,
		Subscription:  cfg.SubscriptionPath,
		TeacherPortal: cfg.TeacherPortalURL,
		AdminPortal:   cfg.AdminPortalURL,
	}, cfg.RedirectDelay)
	accessService := access.NewService(resolver, navigator)

	// 5. ミドルウェア
	limiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFromPerMinute(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	).WithRecorder(collector)
	codec := middleware.NewCookieCodec(cfg.SessionSecret, middleware.CookieConfig{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionMaxAge,
	})

	deps := &handler.RouterDeps{
		Logger:        slog.Default(),
		SessionFinder: sessionRepo,
		CookieCodec:   codec,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService:   authService,
		AccessService: accessService,

		ProfileService:      userService,
		SubscriptionService: subService,

		ReferenceService: refService,
	}

	return handler.NewRouter(deps), limiter.Stop, nil
}

// newReferenceCache はREDIS_URLに応じた参照データキャッシュを返す。
// 未設定の場合はプロセス内キャッシュを使う。
func newReferenceCache(redisURL string) (reference.Cache, func(), error) {
	if redisURL == "" {
		slog.Info("REDIS_URL is not set, using in-memory reference cache")
		return reference.NewMemoryCache(), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// 参照データは固定リストで代替できるため起動は継続する
		slog.Warn("redis is unreachable, reference cache will miss",
			slog.String("error", err.Error()),
		)
	}

	return reference.NewRedisCache(client), func() { client.Close() }, nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションのクリーンアップジョブを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.SessionCleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
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
