// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shelfwatch/backend-go/internal/api/handlers"
	"github.com/shelfwatch/backend-go/internal/api/middleware"
	"github.com/shelfwatch/backend-go/internal/service"
)

type Services struct {
	TimelineService       *service.TimelineService
	ForecastPeriodService *service.ForecastPeriodService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.TimelineService != nil {
			timelineHandler := handlers.NewTimelineHandler(services.TimelineService)
			productGroup := apiGroup.Group("/products/:code")
			{
				productGroup.GET("/timeline", timelineHandler.GetTimeline)
				productGroup.GET("/reorder", timelineHandler.GetReorder)
				productGroup.POST("/refresh", timelineHandler.Refresh)
				productGroup.POST("/snapshot", timelineHandler.ExportSnapshot)
			}
		}

		if services.ForecastPeriodService != nil {
			periodHandler := handlers.NewForecastPeriodHandler(services.ForecastPeriodService)
			periodGroup := apiGroup.Group("/products/id/:id/forecast-periods")
			{
				periodGroup.GET("", periodHandler.List)
				periodGroup.POST("", periodHandler.Add)
				periodGroup.PUT("/:clientId", periodHandler.Edit)
				periodGroup.DELETE("/:clientId", periodHandler.Delete)
				periodGroup.GET("/next-start", periodHandler.NextStart)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
