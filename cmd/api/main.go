// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/issuehub/internal/auth"
	"github.com/yourusername/issuehub/internal/config"
	"github.com/yourusername/issuehub/internal/issues"
	"github.com/yourusername/issuehub/internal/session"
	"github.com/yourusername/issuehub/internal/store"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// データベースの初期化
	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.CreateSchema(ctx, db); err != nil {
		return err
	}

	// セッションミラーと掃除ジョブ
	backend, err := setupSessionBackend(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	sessionStore, err := session.NewStore(backend.Mirror, session.Options{
		Secret: []byte(cfg.TokenSecret),
		TTL:    cfg.SessionTTL,
	}, logger)
	if err != nil {
		return err
	}

	users := store.NewUsers(db)
	svc, err := auth.NewService(users, sessionStore, auth.NewBcryptHasher(cfg.BcryptCost), logger)
	if err != nil {
		return err
	}
	identity := auth.NewIdentity(sessionStore, users, logger)
	authHandler := auth.NewHandler(svc, identity, logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションクッキーの設定（署名鍵は必須）
	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, cookieStore))
	router.Use(auth.RequestTimeout(cfg.RequestTimeout))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, authHandler, store.NewIssues(db), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down API server")
	return srv.Shutdown(shutdownCtx)
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "issuehub-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authHandler *auth.Handler, issueLister issues.Lister, logger *slog.Logger) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			// サインイン前はセッションが無いので CSRF 検証は不要
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/signin", authHandler.Signin)
			// サインアウトは状態に関係なく必ずリダイレクトする
			authRoutes.POST("/signout", authHandler.Signout)
			authRoutes.GET("/me", authHandler.Me)
		}

		protected := api.Group("")
		protected.Use(authHandler.RequireLogin(), auth.VerifyCSRF())
		{
			protected.GET("/issues", issues.ListHandler(issueLister, logger))
		}
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelDebug
	if cfg.GinMode == gin.ReleaseMode {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
