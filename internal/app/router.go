package app

import (
	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/internal/middleware"
	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	secret := func() string { return cfg.JWT.Secret }

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(secret))
	{
		a.registerSessionRoutes(api, c)
		a.registerCatalogRoutes(api, c)
	}
}

func (a *App) registerSessionRoutes(api *gin.RouterGroup, c *controllers) {
	api.POST("/sessions", c.navigation.CreateSession)

	sessions := api.Group("/sessions/:id")
	{
		sessions.GET("", c.navigation.GetSession)
		sessions.DELETE("", c.navigation.CloseSession)

		sessions.POST("/schools/:schoolId", c.navigation.DrillToSchool)
		sessions.POST("/classes/:className", c.navigation.DrillToClass)
		sessions.POST("/students/:studentId", c.navigation.DrillToStudent)
		sessions.POST("/up", c.navigation.NavigateUp)
		sessions.POST("/reset", c.navigation.Reset)
		sessions.POST("/refresh", c.navigation.Refresh)
		sessions.PUT("/filters", c.navigation.SetFilter)

		sessions.GET("/sections", c.navigation.Sections)
		sessions.GET("/students/search", c.navigation.SearchStudents)

		sessions.POST("/export", c.navigation.Export)
		sessions.GET("/exports", c.navigation.ListExports)
	}
}

func (a *App) registerCatalogRoutes(api *gin.RouterGroup, c *controllers) {
	tests := api.Group("/tests")
	tests.Use(middleware.RoleMiddleware(model.RoleAdmin))
	{
		tests.GET("", c.catalog.ListTests)
		tests.GET("/:testId", c.catalog.GetTest)
	}
}
