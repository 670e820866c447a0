package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/outreachcrm/sendpool/api/handlers"
	"github.com/outreachcrm/sendpool/api/middleware"
	"github.com/outreachcrm/sendpool/internal/tracing"
	"github.com/outreachcrm/sendpool/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(s.SchedulerService)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-SENDPOOL-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.WorkspaceValidationMiddleware())
	api.Use(middleware.UserIdMiddleware())
	api.Use(middleware.CustomContextMiddleware("sendpool")) // Add custom context for all /v1/* endpoints
	api.Use(middleware.TracingMiddleware())                 // Add tracing for all /v1/* endpoints
	{
		// Scheduling endpoints
		scheduler := api.Group("/scheduler")
		{
			scheduler.POST("/select", apiHandlers.Scheduler.SelectAccount())
			scheduler.POST("/results", apiHandlers.Scheduler.RecordSendResult())
			scheduler.GET("/health", apiHandlers.Scheduler.GetPoolHealth())
		}

		// Account pool management endpoints
		accounts := api.Group("/accounts")
		{
			accounts.GET("", apiHandlers.Accounts.ListAccounts())
			accounts.POST("", apiHandlers.Accounts.UpsertAccount())
			accounts.PUT("/:id", apiHandlers.Accounts.UpsertAccount())
			accounts.DELETE("/:id", apiHandlers.Accounts.RemoveAccount())
			accounts.POST("/:id/reinstate", apiHandlers.Accounts.ReinstateAccount())
		}
	}
}
