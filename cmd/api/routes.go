package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/basic-auth/internal/auth"
	"github.com/yourusername/basic-auth/internal/config"
	"github.com/yourusername/basic-auth/internal/logger"
	"github.com/yourusername/basic-auth/internal/session"
	"github.com/yourusername/basic-auth/internal/views"
)

// newRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func newRouter(cfg *config.Config, store sessions.Store, users auth.UserStore) (*gin.Engine, error) {
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	tmpl, err := views.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(logger.Middleware(), gin.Recovery())

	// CORSミドルウェアの設定（許可オリジンが指定された場合のみ）
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	router.Use(
		sessions.Sessions(auth.SessionCookieName, store),
		views.Locals(appTitle(cfg.AppName)),
		views.ErrorHandler(),
	)

	authManager := auth.NewManager(users, hasher, session.Policy{
		MaxLifetime: time.Duration(cfg.SessionMaxAgeMinutes) * time.Minute,
		IdleTimeout: time.Duration(cfg.SessionIdleMinutes) * time.Minute,
	})
	setupRoutes(router, authManager)
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "basic-auth",
	})
}

// setupRoutes は画面と認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager) {
	router.GET("/health", handleHealth)
	router.NoRoute(views.NotFound)

	public := router.Group("/")
	public.Use(authManager.ExposeUser())
	{
		public.GET("/", views.Page(views.Index))

		public.GET("/signup", authManager.RequireLogout(), authManager.SignupForm)
		public.POST("/signup", authManager.Signup)
		public.GET("/login", authManager.LoginForm)
		public.POST("/login", authManager.Login)
		public.POST("/logout", authManager.Logout)
	}

	protected := router.Group("/")
	protected.Use(authManager.RequireLogin())
	{
		protected.GET("/userProfile", authManager.Profile)
		protected.GET("/main", views.Page(views.Main))
		protected.GET("/private", views.Page(views.Private))
	}
}

// appTitle はアプリ名の先頭だけを大文字にした画面タイトルを返します。
func appTitle(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:]) + " created with Gin"
}
