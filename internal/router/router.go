package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/handler"
	"github.com/codeclash/arena-backend/internal/middleware"
	"github.com/codeclash/arena-backend/internal/response"
	"github.com/codeclash/arena-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	History *handler.HistoryHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP) so
	// credential stuffing cannot run unthrottled.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile route
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Session Group (JWT) ────────────────────────────────────────
	session := router.Group("/api/v1/session")
	session.Use(middleware.RequireUserJWT(authService))
	{
		session.POST("/random", handlers.Session.JoinRandom)
		session.POST("/room", handlers.Session.CreateRoom)
		session.POST("/room/:code/join", handlers.Session.JoinRoom)
		session.GET("/active", handlers.Session.GetActive)
		session.GET("/:session_id", handlers.Session.GetSession)
		session.POST("/:session_id/answer", handlers.Session.SubmitAnswer)
		session.POST("/:session_id/finish", handlers.Session.Finish)
		session.POST("/:session_id/leave", handlers.Session.Leave)
	}

	// ─── 3. User Group (JWT) ───────────────────────────────────────────
	users := router.Group("/api/v1/users")
	users.Use(middleware.RequireUserJWT(authService))
	{
		users.GET("/me/history", handlers.History.ListMine)
	}

	// ─── 4. WebSocket Group (WS Auth via ?token=) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/rooms/:room_id", handlers.WS.RoomStream)
	}

	return router
}
