package http

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/sujalbistaa/clubpulse/internal/poll"
	"github.com/sujalbistaa/clubpulse/internal/store"
	"github.com/sujalbistaa/clubpulse/internal/ws"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, db *gorm.DB, hub *ws.Hub) {

	// --- Dependencies ---
	env := &Env{
		Polls: poll.NewService(store.NewGormStore(db)),
		Hub:   hub,
	}

	// --- Middleware ---

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*" // Default to allow all for local dev
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-Id", "X-User-Role", "X-User-Club", "X-User-District"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	limiter := NewIPRateLimiter(rate.Limit(voteRateRPS), voteRateBurst)

	// --- API Routes ---

	api := router.Group("/api", RequireIdentity())
	{
		api.GET("/polls", env.ListPolls)
		api.GET("/polls/:id", env.GetPoll)
		api.POST("/polls", env.CreatePoll)
		api.POST("/polls/:id/vote", RateLimitMiddleware(limiter), env.CastVote)
		api.GET("/polls/:id/results", env.GetResults)
		api.PUT("/polls/:id", env.UpdatePoll)
		api.DELETE("/polls/:id", env.DeletePoll)
	}

	// --- WebSocket Route ---

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, c.Writer, c.Request)
	})
}
