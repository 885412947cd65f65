package scannermodule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/errors"
	"github.com/mantonx/vidvault/internal/modules/videomodule/probe"
	"github.com/mantonx/vidvault/internal/modules/videomodule/repository"
	"github.com/mantonx/vidvault/internal/modules/videomodule/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubProber struct {
	delay time.Duration
}

func (p *stubProber) Probe(ctx context.Context, path string) (*probe.MediaInfo, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &probe.MediaInfo{
		DurationSeconds: 60,
		VideoStreams:    []probe.VideoStream{{Codec: "h264", Width: 1280, Height: 720}},
	}, nil
}

func setupManager(t *testing.T, proberDelay time.Duration) *Manager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Each new pool connection to :memory: would open a fresh empty
	// database; cap the pool at one connection like production does.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&database.VideoFile{},
		&database.Tag{},
		&database.CustomMetadataEntry{},
		&database.ScanJob{},
	))

	metadata := service.NewMetadataService(
		repository.NewVideoRepository(db),
		&stubProber{delay: proberDelay},
		nil,
	)
	return NewManager(db, metadata, nil, nil)
}

func populateDir(t *testing.T, count int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("clip-%d.mp4", i))
		require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	}
	return dir
}

func waitForStatus(t *testing.T, m *Manager, jobID uint, status string) *database.ScanJob {
	t.Helper()
	var job *database.ScanJob
	require.Eventually(t, func() bool {
		var err error
		job, err = m.GetJob(jobID)
		return err == nil && job.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestStartScanCompletes(t *testing.T) {
	m := setupManager(t, 0)
	dir := populateDir(t, 3)

	job, err := m.StartScan(dir, true)
	require.NoError(t, err)
	assert.Equal(t, database.ScanStatusRunning, job.Status)

	done := waitForStatus(t, m, job.ID, database.ScanStatusCompleted)
	assert.Equal(t, 3, done.FilesFound)
	assert.Equal(t, 3, done.FilesProcessed)
	assert.Zero(t, done.FilesSkipped)
	assert.Equal(t, 100, done.Progress)
	assert.NotNil(t, done.CompletedAt)
}

func TestStartScanRejectsMissingDirectory(t *testing.T) {
	m := setupManager(t, 0)

	_, err := m.StartScan("/nowhere", false)
	assert.True(t, errors.IsNotFound(err))
}

func TestStartScanRejectsDuplicatePath(t *testing.T) {
	m := setupManager(t, 200*time.Millisecond)
	dir := populateDir(t, 2)

	job, err := m.StartScan(dir, false)
	require.NoError(t, err)

	_, err = m.StartScan(dir, false)
	assert.Error(t, err)

	waitForStatus(t, m, job.ID, database.ScanStatusCompleted)

	// Once the first run finishes, the path is free again.
	second, err := m.StartScan(dir, false)
	require.NoError(t, err)
	waitForStatus(t, m, second.ID, database.ScanStatusCompleted)
}

func TestCancelScan(t *testing.T) {
	m := setupManager(t, 300*time.Millisecond)
	dir := populateDir(t, 10)

	job, err := m.StartScan(dir, false)
	require.NoError(t, err)
	require.NoError(t, m.CancelScan(job.ID))

	done := waitForStatus(t, m, job.ID, database.ScanStatusCancelled)
	assert.Less(t, done.FilesProcessed, 10)
}

func TestCancelScanNotRunning(t *testing.T) {
	m := setupManager(t, 0)
	dir := populateDir(t, 1)

	job, err := m.StartScan(dir, false)
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, database.ScanStatusCompleted)

	assert.Error(t, m.CancelScan(job.ID))
}

func TestCancelScanUnknownJob(t *testing.T) {
	m := setupManager(t, 0)
	assert.True(t, errors.IsNotFound(m.CancelScan(9999)))
}

func TestListJobs(t *testing.T) {
	m := setupManager(t, 0)
	dirA := populateDir(t, 1)
	dirB := populateDir(t, 1)

	jobA, err := m.StartScan(dirA, false)
	require.NoError(t, err)
	waitForStatus(t, m, jobA.ID, database.ScanStatusCompleted)

	jobB, err := m.StartScan(dirB, false)
	require.NoError(t, err)
	waitForStatus(t, m, jobB.ID, database.ScanStatusCompleted)

	jobs, err := m.ListJobs(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	// Newest first.
	assert.Equal(t, jobB.ID, jobs[0].ID)
}

func TestShutdownWaitsForRunningScans(t *testing.T) {
	m := setupManager(t, 100*time.Millisecond)
	dir := populateDir(t, 5)

	job, err := m.StartScan(dir, false)
	require.NoError(t, err)

	m.Shutdown()

	got, err := m.GetJob(job.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{database.ScanStatusCancelled, database.ScanStatusCompleted}, got.Status)
}
