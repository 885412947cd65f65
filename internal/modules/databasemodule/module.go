// Package databasemodule owns the shared system tables and exposes the
// store health endpoint.
package databasemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the database module
	ModuleID = "system.database"

	// ModuleName is the display name
	ModuleName = "Database Manager"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module manages the system-level database tables.
type Module struct {
	db *gorm.DB
}

// ID returns the module ID.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core marks this as a core module.
func (m *Module) Core() bool { return true }

// Migrate creates the system tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.SystemEvent{})
}

// Init captures the shared connection.
func (m *Module) Init() error {
	m.db = database.GetDB()
	logger.Info("Database module initialized")
	return nil
}

// RegisterRoutes attaches the store health endpoint.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/db-status", m.dbStatus)
}

func (m *Module) dbStatus(c *gin.Context) {
	db := database.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": "database not initialized"})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}

	var videoCount int64
	db.Model(&database.VideoFile{}).Count(&videoCount)

	c.JSON(http.StatusOK, gin.H{
		"status": "up",
		"videos": videoCount,
	})
}
