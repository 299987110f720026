package api

import (
	"github.com/gin-gonic/gin"

	"rentalmap/internal/metrics"
)

// SetupRoutes registers the middleware chain and every endpoint
func SetupRoutes(router *gin.Engine, handler *Handler, m *metrics.Metrics) {
	router.Use(RequestID())
	router.Use(Logger(handler.logger))
	router.Use(Recovery(handler.logger))
	if m != nil {
		router.Use(Metrics(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.GET("/stats", handler.GetStats)
		api.GET("/districts", handler.GetDistricts)
		api.GET("/districts/geojson", handler.GetDistrictGeoJSON)
		api.GET("/districts/lookup", handler.LookupDistrict)
		api.GET("/load-status", handler.GetLoadStatus)
		api.POST("/refresh", handler.TriggerRefresh)
	}
}
