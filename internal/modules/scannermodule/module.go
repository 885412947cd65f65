package scannermodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/config"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/modulemanager"
	"github.com/mantonx/vidvault/internal/modules/videomodule"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the scanner module
	ModuleID = "catalog.scanner"

	// ModuleName is the display name
	ModuleName = "Directory Scanner"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module runs scan jobs and the optional directory watcher.
type Module struct {
	manager *Manager
	watcher *Watcher
}

// ID returns the module ID.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core returns false; the scanner can be left out of minimal deployments.
func (m *Module) Core() bool { return false }

// Migrate creates the scan job table.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.ScanJob{})
}

// Init builds the scan manager and starts the watcher when configured.
// Runs after the video module because it consumes its service.
func (m *Module) Init() error {
	cfg := config.Get()

	metadata := videomodule.GetService()
	if metadata == nil {
		logger.Error("Scanner module requires the video catalog module")
		return nil
	}

	monitor := NewSystemMonitor(cfg.Scanner.CPUThreshold, cfg.Scanner.ThrottleDelay)
	m.manager = NewManager(database.GetDB(), metadata, events.GetGlobalEventBus(), monitor)

	if cfg.Scanner.WatchEnabled && len(cfg.Scanner.WatchDirectories) > 0 {
		m.watcher = NewWatcher(m.manager, events.GetGlobalEventBus())
		if err := m.watcher.Start(cfg.Scanner.WatchDirectories); err != nil {
			logger.Warn("Directory watcher failed to start: %v", err)
			m.watcher = nil
		}
	}

	logger.Info("Scanner module initialized")
	return nil
}

// Shutdown stops the watcher and waits for running scans.
func (m *Module) Shutdown() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	if m.manager != nil {
		m.manager.Shutdown()
	}
}

// RegisterRoutes attaches the scan API.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if m.manager == nil {
		return
	}
	m.registerScanRoutes(router)
}

// GetManager returns the scan manager for other components.
func (m *Module) GetManager() *Manager {
	return m.manager
}
