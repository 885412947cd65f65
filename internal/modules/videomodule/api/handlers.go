package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/errors"
	"github.com/mantonx/vidvault/internal/modules/videomodule/service"
)

// Handler provides HTTP handlers for catalog operations.
type Handler struct {
	metadata *service.MetadataService
}

// NewHandler creates a new API handler.
func NewHandler(metadata *service.MetadataService) *Handler {
	return &Handler{metadata: metadata}
}

// GetVideos handles GET /api/videos. The optional ?q= parameter searches
// across file name, title, description, and tag names.
func (h *Handler) GetVideos(c *gin.Context) {
	term := c.Query("q")

	videos, err := h.metadata.SearchVideoFiles(c.Request.Context(), term)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// GetVideo handles GET /api/videos/:id.
func (h *Handler) GetVideo(c *gin.Context) {
	video, err := h.metadata.GetVideoFileByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// UpdateVideo handles PUT /api/videos/:id, applying user edits to the
// editable fields.
func (h *Handler) UpdateVideo(c *gin.Context) {
	var edit service.VideoEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		errors.HandleValidationError(c, "invalid edit payload", "body")
		return
	}

	video, err := h.metadata.UpdateDetails(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// UpdateTagsRequest is the payload for tag replacement.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// UpdateTags handles PUT /api/videos/:id/tags, replacing the video's
// entire tag set.
func (h *Handler) UpdateTags(c *gin.Context) {
	var req UpdateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid tags payload", "tags")
		return
	}

	id := c.Param("id")
	if err := h.metadata.UpdateTags(c.Request.Context(), id, req.Tags); err != nil {
		errors.HandleError(c, err)
		return
	}

	video, err := h.metadata.GetVideoFileByID(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.metadata.ListTags(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

// SetMetadataRequest is the payload for a custom metadata write.
type SetMetadataRequest struct {
	Value     string `json:"value"`
	ValueType string `json:"value_type"`
}

// SetCustomMetadata handles PUT /api/videos/:id/metadata/:key.
func (h *Handler) SetCustomMetadata(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		errors.HandleValidationError(c, "missing metadata key", "key")
		return
	}

	var req SetMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid metadata payload", "body")
		return
	}

	if err := h.metadata.SetCustomMetadata(c.Request.Context(), c.Param("id"), key, req.Value, req.ValueType); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCustomMetadata handles DELETE /api/videos/:id/metadata/:key.
func (h *Handler) DeleteCustomMetadata(c *gin.Context) {
	if err := h.metadata.DeleteCustomMetadata(c.Request.Context(), c.Param("id"), c.Param("key")); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
