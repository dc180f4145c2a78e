package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Civilization game endpoints
		game := v1.Group("/game")
		{
			game.POST("/join/:wallet", handler.JoinGame)
			game.GET("/user/:wallet", handler.GetGameUser)
			game.POST("/cave/:coordinates/build", handler.BuildCave)
			game.GET("/claim/owner/total/:wallet", handler.ClaimOwnerTotal)
			game.GET("/claim/owner/:coordinates/:wallet", handler.ClaimOwnerSegment)
			game.GET("/claim/citizen/total/:wallet", handler.ClaimCitizenTotal)
			game.GET("/claim/citizen/:caveId/:wallet", handler.ClaimCitizenCave)
			game.GET("/segments/:wallet", handler.GetGameSegments)
			game.GET("/map", handler.GetMap)
			game.POST("/map/:wallet", handler.SyncWallet)
		}

		// User profiles
		v1.GET("/user/:wallet", handler.GetUserProfile)
		v1.PUT("/user/:wallet", handler.UpdateUserProfile)

		// Per-segment metadata and images
		v1.GET("/segments/:coordinates", handler.GetSegment)
		v1.PUT("/segments/:coordinates/:wallet", handler.UpdateSegment)
		v1.POST("/segments/:coordinates/image/:wallet", handler.UploadSegmentImage)

		// Merged segment lifecycle
		v1.GET("/segments-merged", handler.ListMergedSegments)
		v1.GET("/segments-merged/:id", handler.GetMergedSegment)
		v1.POST("/segments-merged/:wallet", handler.MergeSegments)
		v1.POST("/segments-merged/:wallet/image/:id", handler.UploadMergedSegmentImage)
		v1.DELETE("/segments-merged/:id/:wallet", handler.UnmergeSegment)

		// Marketplace statistics
		stats := v1.Group("/stats")
		{
			stats.GET("/population", handler.GetPopulation)
			stats.GET("/top-holders", handler.GetTopHolders)
			stats.GET("/price-changes", handler.GetPriceChanges)
			stats.GET("/lands-for-sale", handler.GetLandsForSale)
			stats.GET("/recent-images", handler.GetRecentImages)
		}

		// Audit log
		v1.GET("/logs", handler.GetLogs)
	}
}
