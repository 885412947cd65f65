package scannermodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/errors"
)

// StartScanRequest is the payload for starting a scan.
type StartScanRequest struct {
	Path      string `json:"path" binding:"required"`
	Recursive bool   `json:"recursive"`
}

func (m *Module) registerScanRoutes(router *gin.Engine) {
	scans := router.Group("/api/scans")
	{
		scans.POST("/", m.startScan)
		scans.GET("/", m.listScans)
		scans.GET("/:id", m.getScan)
		scans.POST("/:id/cancel", m.cancelScan)
	}
}

func (m *Module) startScan(c *gin.Context) {
	var req StartScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid scan request", "path")
		return
	}

	job, err := m.manager.StartScan(req.Path, req.Recursive)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (m *Module) listScans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	jobs, err := m.manager.ListJobs(limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": jobs, "count": len(jobs)})
}

func (m *Module) getScan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errors.HandleValidationError(c, "invalid scan job id", "id")
		return
	}

	job, getErr := m.manager.GetJob(uint(id))
	if getErr != nil {
		errors.HandleError(c, getErr)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (m *Module) cancelScan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errors.HandleValidationError(c, "invalid scan job id", "id")
		return
	}

	if err := m.manager.CancelScan(uint(id)); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}
