package handler

import (
	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers bundles every API handler for route registration
type Handlers struct {
	Session    *SessionHandler
	Entity     *EntityHandler
	Budget     *BudgetHandler
	Goal       *GoalHandler
	Projection *ProjectionHandler
	Category   *CategoryHandler
	Report     *ReportHandler
	Search     *SearchHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// WebSocket authenticates with ?token= instead of the Authorization header
	api.GET("/ws", h.WebSocket.HandleWS)

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	protected.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Session routes
	protected.POST("/session", h.Session.Open)
	protected.GET("/session", h.Session.Get)
	protected.DELETE("/session", h.Session.Close)

	// Budget analysis routes (static paths before the entity :id routes)
	protected.GET("/budgets/analysis", h.Budget.GetOverview)
	protected.GET("/budgets/alerts", h.Budget.GetAlerts)
	protected.GET("/budgets/:id/analysis", h.Budget.GetAnalysis)

	// Goal and saving progress routes
	protected.GET("/goals/progress", h.Goal.GetGoalProgress)
	protected.POST("/goals/:id/contributions", h.Goal.AddToGoal)
	protected.GET("/savings/progress", h.Goal.GetSavingProgress)
	protected.POST("/savings/:id/contributions", h.Goal.AddToSaving)

	// Category aggregation routes
	protected.GET("/categories/aggregate", h.Category.GetAggregate)
	protected.GET("/categories/:id/details", h.Category.GetDetails)

	// Entity routes, one set per collection
	for _, collection := range domain.AllCollections {
		group := protected.Group("/" + string(collection))
		group.GET("", h.Entity.List(collection))
		group.POST("", h.Entity.Create(collection))
		group.GET("/:id", h.Entity.Get(collection))
		group.PUT("/:id", h.Entity.Update(collection))
		group.DELETE("/:id", h.Entity.Delete(collection))
	}

	// Projection routes
	projections := protected.Group("/projections")
	projections.GET("/monthly", h.Projection.GetMonthly)
	projections.GET("/yearly", h.Projection.GetYearly)
	projections.GET("/trend", h.Projection.GetTrend)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("", h.Report.GetTab)
	reports.POST("/build", h.Report.Build)
	reports.POST("/export", h.Report.Export)
	reports.GET("/presets", h.Report.ListPresets)
	reports.POST("/presets", h.Report.CreatePreset)
	reports.GET("/presets/:id", h.Report.GetPreset)
	reports.PUT("/presets/:id", h.Report.UpdatePreset)
	reports.DELETE("/presets/:id", h.Report.DeletePreset)

	// Search routes
	protected.GET("/search", h.Search.Search)
}
