package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inzamam-virk/lottery-app/internal/config"
	"github.com/inzamam-virk/lottery-app/internal/handlers"
	"github.com/inzamam-virk/lottery-app/internal/middleware"
)

// HandlerDependencies holds the handlers mounted by SetupRouter
type HandlerDependencies struct {
	DrawHandler *handlers.DrawHandler
	BetHandler  *handlers.BetHandler
	Results     gin.HandlerFunc
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		draws := public.Group("/draws")
		{
			draws.GET("/current", deps.DrawHandler.GetCurrentDraw)
			draws.GET("/upcoming", deps.DrawHandler.GetUpcomingDraws)
			draws.GET("/completed", deps.DrawHandler.GetCompletedDraws)
			draws.GET("/:id", deps.DrawHandler.GetDrawByID)
		}

		if deps.Results != nil {
			public.GET("/ws/results", deps.Results)
		}
	}

	// Periodic trigger, called by cron
	jobs := router.Group("/api/v1/jobs")
	jobs.Use(middleware.TriggerKeyMiddleware(cfg.Trigger.KeyHash))
	{
		jobs.POST("/schedule-draws", deps.DrawHandler.ScheduleDraws)
		jobs.POST("/run-draws", deps.DrawHandler.RunDraws)
	}

	// Dealer routes
	dealer := router.Group("/api/v1")
	dealer.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(middleware.RoleDealer))
	{
		dealer.POST("/bets", deps.BetHandler.PlaceBet)
		dealer.GET("/bets", deps.BetHandler.ListBets)
		dealer.GET("/bets/stats", deps.BetHandler.GetStats)
		dealer.GET("/bets/:id/refunds", deps.BetHandler.GetBetRefunds)
		dealer.GET("/refunds", deps.BetHandler.GetRefunds)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(middleware.RoleAdmin))
	{
		draws := admin.Group("/draws")
		{
			draws.POST("/schedule", deps.DrawHandler.ScheduleDraws)
			draws.POST("/run", deps.DrawHandler.RunDraws)
			draws.POST("/:id/settle", deps.DrawHandler.SettleDraw)
			draws.GET("/:id/bets", deps.DrawHandler.GetDrawBets)
			draws.GET("/:id/report", deps.DrawHandler.GetDrawReport)
		}
	}

	return router
}
