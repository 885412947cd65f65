// Package scannermodule runs directory scan jobs against the video
// catalog, tracks their progress, and optionally watches directories for
// changes.
package scannermodule

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/mantonx/vidvault/internal/config"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/errors"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/videomodule/service"
	"github.com/mantonx/vidvault/internal/utils"
	"gorm.io/gorm"
)

// Manager owns scan job execution. One job per path runs at a time;
// starting a scan for a path that is already scanning fails instead of
// queuing a duplicate.
type Manager struct {
	db       *gorm.DB
	metadata *service.MetadataService
	eventBus events.EventBus
	monitor  *SystemMonitor

	mu      sync.Mutex
	active  map[string]uint // normalized path -> job ID
	cancels map[uint]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a scan manager.
func NewManager(db *gorm.DB, metadata *service.MetadataService, eventBus events.EventBus, monitor *SystemMonitor) *Manager {
	return &Manager{
		db:       db,
		metadata: metadata,
		eventBus: eventBus,
		monitor:  monitor,
		active:   make(map[string]uint),
		cancels:  make(map[uint]context.CancelFunc),
	}
}

// StartScan creates a scan job for the directory and runs it in the
// background. Returns the created job row.
func (m *Manager) StartScan(path string, recursive bool) (*database.ScanJob, error) {
	if !utils.IsDirectory(path) {
		return nil, errors.NewNotFoundError("directory", path)
	}

	normalized := filepath.Clean(path)

	m.mu.Lock()
	if jobID, busy := m.active[normalized]; busy {
		m.mu.Unlock()
		logger.Debug("Scan rejected: job %d already running for %s", jobID, normalized)
		return nil, errors.NewValidationError("scan already running for this path", "path")
	}

	job := &database.ScanJob{
		Path:      normalized,
		Recursive: recursive,
		Status:    database.ScanStatusRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(job).Error; err != nil {
		m.mu.Unlock()
		return nil, errors.NewDatabaseError("create scan job", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.active[normalized] = job.ID
	m.cancels[job.ID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	m.publish(events.EventScanStarted, "Scan Started", normalized, job.ID)

	go m.runScan(ctx, job)

	return job, nil
}

// GetJob returns one scan job by ID.
func (m *Manager) GetJob(id uint) (*database.ScanJob, error) {
	var job database.ScanJob
	if err := m.db.First(&job, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("scan job", "")
		}
		return nil, errors.NewDatabaseError("get scan job", err)
	}
	return &job, nil
}

// ListJobs returns scan jobs, newest first.
func (m *Manager) ListJobs(limit int) ([]*database.ScanJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []*database.ScanJob
	if err := m.db.Order("id DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, errors.NewDatabaseError("list scan jobs", err)
	}
	return jobs, nil
}

// CancelScan requests cancellation of a running job. Records already
// saved stay committed.
func (m *Manager) CancelScan(id uint) error {
	m.mu.Lock()
	cancel, ok := m.cancels[id]
	m.mu.Unlock()

	if !ok {
		job, err := m.GetJob(id)
		if err != nil {
			return err
		}
		logger.Debug("Cancel rejected: job %d is %s", id, job.Status)
		return errors.NewValidationError("scan job is not running", "id")
	}

	cancel()
	return nil
}

// Shutdown cancels all running jobs and waits for them to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) runScan(ctx context.Context, job *database.ScanJob) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.active, job.Path)
		delete(m.cancels, job.ID)
		m.mu.Unlock()
	}()

	cfg := config.Get()
	opts := service.ScanOptions{
		Recursive: job.Recursive,
		Parallel:  cfg.Scanner.ParallelScanning,
		Workers:   cfg.Scanner.WorkerCount,
	}
	if cfg.Scanner.ThrottleEnabled && m.monitor != nil {
		opts.Pace = m.monitor.Pace
	}

	var lastPersist time.Time
	opts.OnProgress = func(processed, skipped, total int, path string) {
		job.FilesFound = total
		job.FilesProcessed = processed
		job.FilesSkipped = skipped
		if total > 0 {
			job.Progress = (processed + skipped) * 100 / total
		}

		// Persisting every file would hammer the store on large scans.
		if time.Since(lastPersist) < time.Second && processed+skipped < total {
			return
		}
		lastPersist = time.Now()
		m.persistProgress(job)
		m.publish(events.EventScanProgress, "Scan Progress", path, job.ID)
	}

	logger.Info("Scan job %d started for %s (recursive=%v)", job.ID, job.Path, job.Recursive)
	_, err := m.metadata.ScanDirectory(ctx, job.Path, opts)

	now := time.Now()
	job.CompletedAt = &now

	switch {
	case err == nil:
		job.Status = database.ScanStatusCompleted
		job.Progress = 100
		m.publish(events.EventScanCompleted, "Scan Completed", job.Path, job.ID)
		logger.InfoS("Scan job completed",
			logger.Int("job_id", int(job.ID)),
			logger.String("path", job.Path),
			logger.Int("processed", job.FilesProcessed),
			logger.Int("skipped", job.FilesSkipped))
	case stderrors.Is(err, context.Canceled):
		job.Status = database.ScanStatusCancelled
		m.publish(events.EventScanCancelled, "Scan Cancelled", job.Path, job.ID)
		logger.Info("Scan job %d cancelled", job.ID)
	default:
		job.Status = database.ScanStatusFailed
		job.ErrorMessage = err.Error()
		m.publish(events.EventScanFailed, "Scan Failed", job.Path, job.ID)
		logger.ErrorS("Scan job failed",
			logger.Int("job_id", int(job.ID)),
			logger.String("path", job.Path),
			logger.Err(err))
	}

	m.persistProgress(job)
}

func (m *Manager) persistProgress(job *database.ScanJob) {
	if err := m.db.Save(job).Error; err != nil {
		logger.Warn("Failed to persist scan job %d: %v", job.ID, err)
	}
}

func (m *Manager) publish(eventType events.EventType, title, message string, jobID uint) {
	if m.eventBus == nil {
		return
	}
	event := events.NewSystemEvent(eventType, title, message)
	event.Data = map[string]interface{}{"job_id": jobID}
	m.eventBus.PublishAsync(event)
}
