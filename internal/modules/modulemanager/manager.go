// Package modulemanager coordinates registration and initialization of
// the application's feature modules.
package modulemanager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/logger"
	"gorm.io/gorm"
)

// Module defines the interface that all modules must implement.
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name for the module
	Core() bool                // Whether this is a core module (cannot be disabled)
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is an optional interface for modules that register routes.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// ModuleRegistry manages module registration and initialization.
type ModuleRegistry struct {
	modules     map[string]Module
	mu          sync.RWMutex
	initialized bool
}

// Registry is the global module registry.
var Registry = &ModuleRegistry{
	modules: make(map[string]Module),
}

// Register adds a module to the global registry.
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry.
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module %s (%s) registered after initialization", m.Name(), m.ID())
	}
	r.modules[m.ID()] = m
	logger.Info("Module registered: %s (%s)", m.Name(), m.ID())
}

// LoadAll migrates and initializes all registered modules.
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes all registered modules. Core modules
// run first; the rest follow in a stable ID order.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module system already initialized")
		return nil
	}

	ordered := r.orderedLocked()
	logger.Info("Loading %d modules...", len(ordered))

	for _, m := range ordered {
		if err := m.Migrate(db); err != nil {
			return fmt.Errorf("module %s migration failed: %w", m.ID(), err)
		}
	}
	for _, m := range ordered {
		if err := m.Init(); err != nil {
			return fmt.Errorf("module %s initialization failed: %w", m.ID(), err)
		}
		logger.Info("Module initialized: %s", m.Name())
	}

	r.initialized = true
	return nil
}

// RegisterRoutes lets every module that implements RouteRegistrar attach
// its routes.
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes attaches the routes of every route-registering module.
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.orderedLocked() {
		if registrar, ok := m.(RouteRegistrar); ok {
			registrar.RegisterRoutes(router)
			logger.Debug("Routes registered for module: %s", m.ID())
		}
	}
}

// Shutdowner is an optional interface for modules with background work
// to stop on shutdown.
type Shutdowner interface {
	Shutdown()
}

// ShutdownAll stops every module that implements Shutdowner, in reverse
// initialization order.
func ShutdownAll() {
	Registry.ShutdownAll()
}

// ShutdownAll stops modules with background work.
func (r *ModuleRegistry) ShutdownAll() {
	r.mu.RLock()
	ordered := r.orderedLocked()
	r.mu.RUnlock()

	for i := len(ordered) - 1; i >= 0; i-- {
		if s, ok := ordered[i].(Shutdowner); ok {
			s.Shutdown()
			logger.Debug("Module shut down: %s", ordered[i].ID())
		}
	}
}

// ListModules returns the IDs of all registered modules.
func (r *ModuleRegistry) ListModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *ModuleRegistry) orderedLocked() []Module {
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.modules[ids[i]], r.modules[ids[j]]
		if a.Core() != b.Core() {
			return a.Core()
		}
		return a.ID() < b.ID()
	})

	ordered := make([]Module, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, r.modules[id])
	}
	return ordered
}

// Reset clears the registry. Used by tests.
func Reset() {
	Registry.mu.Lock()
	defer Registry.mu.Unlock()
	Registry.modules = make(map[string]Module)
	Registry.initialized = false
}
