package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eduportal/internal/middleware"
)

// HealthChecker はヘルスチェックで疎通確認する依存先。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CookieCodec       *middleware.CookieCodec
	CSRFConfig        middleware.CSRFConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証・アクセス判定
	AuthService   AuthServiceInterface
	AccessService AccessServiceInterface

	// ダッシュボード
	ProfileService      ProfileServiceInterface
	SubscriptionService SubscriptionServiceInterface

	// 参照データ
	ReferenceService ReferenceServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → CSRF
//	  公開ルート: RateLimit(Login)（認証フォームのみ）
//	  認証ルート: Session → RateLimit(General)
//
// /health と /metrics はCORS・CSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	errs := errorResponder{sessions: deps.AuthService, codec: deps.CookieCodec}
	authHandler := NewAuthHandler(deps.AuthService, deps.AccessService, deps.CookieCodec)
	profileHandler := NewProfileHandler(deps.ProfileService, errs)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService, errs)
	refHandler := NewReferenceHandler(deps.ReferenceService)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// --- 認証不要のルート ---

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		r.Route("/reference", func(r chi.Router) {
			r.Get("/grades", refHandler.ListGrades)
			r.Get("/regions", refHandler.ListRegions)
		})

		r.Route("/auth", func(r chi.Router) {
			// 資格情報を受け取るフォームはIP単位でレート制限する
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.LoginMiddleware())
				r.Post("/login", authHandler.Login)
				r.Post("/register", authHandler.Register)
				r.Post("/password/forgot", authHandler.ForgotPassword)
				r.Post("/password/reset", authHandler.ResetPassword)
			})

			// ログアウトはCookieが無効でも成功させる
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.CookieCodec))
				r.Use(deps.RateLimiter.GeneralMiddleware())
				r.Get("/me", authHandler.Me)
				r.Get("/access", authHandler.Access)
			})
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.CookieCodec))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/profile", profileHandler.GetProfile)
			r.Put("/profile", profileHandler.UpdateProfile)
			r.Get("/subscription", subHandler.GetSubscription)
		})
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
