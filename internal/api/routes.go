package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the API on router. An empty origins list allows
// any origin.
func SetupRoutes(router *gin.Engine, handler *Handler, origins []string) {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/deals", handler.GetDeals)
		api.GET("/deals/map", handler.GetDealsMap)
		api.GET("/deals/:id", handler.GetDeal)
		api.POST("/deals/:id/approve", handler.ApproveDeal)
		api.POST("/deals/:id/reject", handler.RejectDeal)
		api.PUT("/deals/:id/notes", handler.UpdateNotes)
		api.DELETE("/deals/:id", handler.DeleteDeal)
		api.GET("/deals/:id/report", handler.GetDealReport)
		api.GET("/stats", handler.GetStats)
		api.GET("/deal-types", handler.GetDealTypes)
		api.POST("/appraisals", handler.RunAppraisal)
		api.POST("/emails", handler.SubmitEmail)

		api.GET("/telegram/config", handler.GetTelegramConfig)
		api.PUT("/telegram/config", handler.UpdateTelegramConfig)
		api.PUT("/telegram/filters", handler.UpdateTelegramFilters)
		api.POST("/telegram/test", handler.TestTelegramConfig)
	}
}
