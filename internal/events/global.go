package events

import "sync"

var (
	globalBus EventBus
	globalMu  sync.RWMutex
)

// SetGlobalEventBus registers the process-wide event bus so modules can
// reach it without explicit wiring.
func SetGlobalEventBus(bus EventBus) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalBus = bus
}

// GetGlobalEventBus returns the process-wide event bus, or nil if none
// has been registered yet.
func GetGlobalEventBus() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}
