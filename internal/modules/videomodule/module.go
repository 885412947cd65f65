// Package videomodule provides the video catalog: metadata extraction,
// persistence, tagging, and search.
package videomodule

import (
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/vidvault/internal/config"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/modulemanager"
	"github.com/mantonx/vidvault/internal/modules/videomodule/api"
	"github.com/mantonx/vidvault/internal/modules/videomodule/probe"
	"github.com/mantonx/vidvault/internal/modules/videomodule/repository"
	"github.com/mantonx/vidvault/internal/modules/videomodule/service"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the video module
	ModuleID = "catalog.video"

	// ModuleName is the display name
	ModuleName = "Video Catalog"
)

func init() {
	modulemanager.Register(&Module{})
}

var activeService *service.MetadataService

// GetService returns the module's metadata service once the module is
// initialized. Other modules (the scanner) depend on it.
func GetService() *service.MetadataService {
	return activeService
}

// Module wires the video catalog together.
type Module struct {
	service *service.MetadataService
}

// ID returns the module ID.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core marks this as a core module.
func (m *Module) Core() bool { return true }

// Migrate creates the catalog tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.VideoFile{},
		&database.Tag{},
		&database.CustomMetadataEntry{},
	)
}

// Init builds the repository, prober, and service.
func (m *Module) Init() error {
	cfg := config.Get()

	repo := repository.NewVideoRepository(database.GetDB())
	prober := probe.NewFFprobeProber(
		cfg.Probe.FFprobePath,
		cfg.Probe.Timeout,
		hclog.New(&hclog.LoggerOptions{
			Name:  "ffprobe",
			Level: hclog.Warn,
		}),
	)

	m.service = service.NewMetadataService(repo, prober, events.GetGlobalEventBus())
	activeService = m.service

	logger.Info("Video catalog module initialized")
	return nil
}

// RegisterRoutes attaches the catalog API.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	handler := api.NewHandler(m.service)
	api.RegisterRoutes(router, handler)
}
