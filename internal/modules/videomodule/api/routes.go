package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all video catalog routes.
func RegisterRoutes(router *gin.Engine, handler *Handler) {
	videos := router.Group("/api/videos")
	{
		videos.GET("/", handler.GetVideos)
		videos.GET("/:id", handler.GetVideo)
		videos.PUT("/:id", handler.UpdateVideo)
		videos.PUT("/:id/tags", handler.UpdateTags)
		videos.PUT("/:id/metadata/:key", handler.SetCustomMetadata)
		videos.DELETE("/:id/metadata/:key", handler.DeleteCustomMetadata)
	}

	tags := router.Group("/api/tags")
	{
		tags.GET("/", handler.ListTags)
	}
}
