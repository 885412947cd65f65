package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/events"
)

var startTime = time.Now()

// registerSystemRoutes attaches the endpoints that belong to no module.
func registerSystemRoutes(router *gin.Engine) {
	router.GET("/api/health", healthHandler)
	router.GET("/api/events", recentEventsHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

func recentEventsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	bus := events.GetGlobalEventBus()
	if bus == nil {
		c.JSON(http.StatusOK, gin.H{"events": []events.Event{}, "count": 0})
		return
	}

	recent := bus.RecentEvents(limit)
	c.JSON(http.StatusOK, gin.H{"events": recent, "count": len(recent)})
}
