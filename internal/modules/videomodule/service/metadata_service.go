// Package service implements the metadata synchronization service: the
// orchestration of directory scanning, media probing, and catalog
// persistence.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/errors"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/videomodule/probe"
	"github.com/mantonx/vidvault/internal/modules/videomodule/repository"
	"github.com/mantonx/vidvault/internal/utils"
)

// ScanOptions controls a directory scan.
type ScanOptions struct {
	// Recursive includes subdirectories in the scan.
	Recursive bool

	// Parallel probes files concurrently using Workers goroutines.
	// The upsert path remains safe under concurrency; result order is
	// unspecified either way.
	Parallel bool
	Workers  int

	// OnProgress, when set, is called after each file attempt.
	OnProgress func(processed, skipped, total int, path string)

	// Pace, when set, is called between files so the caller can slow
	// the scan down (system-load throttling).
	Pace func(ctx context.Context)
}

// VideoEdit carries the user-editable fields of a video file.
type VideoEdit struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DateTaken   *time.Time `json:"date_taken,omitempty"`
}

// MetadataService orchestrates scanning, probing, and upserting. It is
// the only component with real control-flow and failure-handling logic;
// the prober and the repository stay narrow.
type MetadataService struct {
	repo     *repository.VideoRepository
	prober   probe.Prober
	eventBus events.EventBus
}

// NewMetadataService creates a metadata service.
func NewMetadataService(repo *repository.VideoRepository, prober probe.Prober, eventBus events.EventBus) *MetadataService {
	return &MetadataService{
		repo:     repo,
		prober:   prober,
		eventBus: eventBus,
	}
}

// ExtractMetadata reads filesystem attributes and probes the file for
// technical metadata, returning an unsaved record. If the path is
// already cataloged the existing record is returned unchanged and the
// prober is not invoked; refreshing a known file goes through
// ScanDirectory's save path instead.
//
// The store is never written here; the caller decides whether to persist.
func (s *MetadataService) ExtractMetadata(ctx context.Context, path string) (*database.VideoFile, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, errors.NewNotFoundError("video file", path)
	}

	existing, err := s.repo.GetByPath(ctx, path)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	record := &database.VideoFile{
		FileName:     filepath.Base(path),
		FilePath:     path,
		FileSize:     info.Size(),
		LastModified: info.ModTime(),
		Title:        utils.TitleFromPath(path),
	}

	media, err := s.prober.Probe(ctx, path)
	if err != nil {
		return nil, errors.NewExtractionError(path, err)
	}

	record.Duration = media.DurationSeconds
	if vs := media.PrimaryVideo(); vs != nil {
		record.Resolution = fmt.Sprintf("%dx%d", vs.Width, vs.Height)
		record.VideoCodec = vs.Codec
		record.FrameRate = vs.FrameRate
		record.BitrateKbps = int(vs.BitRate / 1000)
	}
	if as := media.PrimaryAudio(); as != nil {
		record.AudioCodec = as.Codec
	}

	created := utils.BestEffortCreationTime(info)
	record.DateTaken = &created

	return record, nil
}

// SaveVideoFile persists a record keyed by path. Technical fields are
// refreshed on existing records; user edits (title, description, date
// taken) are preserved and only change through UpdateDetails. After this
// call there is at most one record for the path.
func (s *MetadataService) SaveVideoFile(ctx context.Context, record *database.VideoFile) (*database.VideoFile, error) {
	_, err := s.repo.GetByPath(ctx, record.FilePath)
	isNew := errors.IsNotFound(err)
	if err != nil && !isNew {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		eventType := events.EventVideoUpdated
		title := "Video Updated"
		if isNew {
			eventType = events.EventVideoCreated
			title = "Video Cataloged"
		}
		event := events.NewSystemEvent(eventType, title, saved.FilePath)
		event.Data = map[string]interface{}{"id": saved.ID, "path": saved.FilePath}
		s.eventBus.PublishAsync(event)
	}

	return saved, nil
}

// UpdateDetails applies a user edit to a video file's editable fields.
func (s *MetadataService) UpdateDetails(ctx context.Context, id string, edit VideoEdit) (*database.VideoFile, error) {
	updated, err := s.repo.UpdateDetails(ctx, id, edit.Title, edit.Description, edit.DateTaken)
	if err != nil {
		return nil, err
	}
	if s.eventBus != nil {
		event := events.NewSystemEvent(events.EventVideoUpdated, "Video Details Edited", updated.FilePath)
		event.Data = map[string]interface{}{"id": updated.ID}
		s.eventBus.PublishAsync(event)
	}
	return updated, nil
}

// ScanDirectory enumerates video files under root and catalogs each one.
// Per-file failures are logged and skipped; the scan continues with the
// remaining files and no partial record is persisted for a failed file.
// Cancellation is honored between files; records saved before
// cancellation stay committed.
func (s *MetadataService) ScanDirectory(ctx context.Context, root string, opts ScanOptions) ([]*database.VideoFile, error) {
	if !utils.IsDirectory(root) {
		return nil, errors.NewNotFoundError("directory", root)
	}

	candidates, err := s.enumerate(root, opts.Recursive)
	if err != nil {
		return nil, err
	}

	if opts.Parallel && opts.Workers > 1 {
		return s.scanParallel(ctx, candidates, opts)
	}
	return s.scanSequential(ctx, candidates, opts)
}

func (s *MetadataService) enumerate(root string, recursive bool) ([]string, error) {
	var candidates []string

	if recursive {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				logger.WarnS("Skipping unreadable path", logger.String("path", path), logger.Err(err))
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if utils.IsVideoFile(path) {
				candidates = append(candidates, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.NewInternalError("directory walk failed", err)
		}
		return candidates, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.NewInternalError("directory read failed", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if utils.IsVideoFile(path) {
			candidates = append(candidates, path)
		}
	}
	return candidates, nil
}

func (s *MetadataService) scanSequential(ctx context.Context, candidates []string, opts ScanOptions) ([]*database.VideoFile, error) {
	results := make([]*database.VideoFile, 0, len(candidates))
	processed, skipped := 0, 0

	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if opts.Pace != nil {
			opts.Pace(ctx)
		}

		saved, err := s.processFile(ctx, path)
		if err != nil {
			skipped++
			s.reportSkip(path, err)
		} else {
			processed++
			results = append(results, saved)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(processed, skipped, len(candidates), path)
		}
	}
	return results, nil
}

func (s *MetadataService) scanParallel(ctx context.Context, candidates []string, opts ScanOptions) ([]*database.VideoFile, error) {
	pool := utils.NewWorkerPool(opts.Workers)
	pool.Start(ctx)

	var (
		mu        sync.Mutex
		results   []*database.VideoFile
		processed int
		skipped   int
	)

	for _, path := range candidates {
		path := path
		submitted := pool.Submit(ctx, func() {
			saved, err := s.processFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				skipped++
				s.reportSkip(path, err)
			} else {
				processed++
				results = append(results, saved)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(processed, skipped, len(candidates), path)
			}
		})
		if !submitted {
			break
		}
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// reportSkip records a per-file failure without aborting the scan.
func (s *MetadataService) reportSkip(path string, err error) {
	logger.WarnS("Skipping file", logger.String("path", path), logger.Err(err))
	if s.eventBus != nil {
		event := events.NewSystemEvent(events.EventVideoSkipped, "Video Skipped", path)
		event.Data = map[string]interface{}{"path": path, "reason": err.Error()}
		s.eventBus.PublishAsync(event)
	}
}

// processFile runs the extract-then-save pipeline for one candidate.
func (s *MetadataService) processFile(ctx context.Context, path string) (*database.VideoFile, error) {
	record, err := s.ExtractMetadata(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.SaveVideoFile(ctx, record)
}

// UpdateTags replaces a video file's tag set with the resolved tags for
// the given names, creating missing tags on the way. The whole operation
// runs in one store transaction: a failure leaves both the tag table and
// the association set untouched.
func (s *MetadataService) UpdateTags(ctx context.Context, id string, tagNames []string) error {
	if err := s.repo.ReplaceTags(ctx, id, tagNames); err != nil {
		return err
	}
	if s.eventBus != nil {
		event := events.NewSystemEvent(events.EventTagsReplaced, "Tags Replaced", id)
		event.Data = map[string]interface{}{"id": id, "tags": tagNames}
		s.eventBus.PublishAsync(event)
	}
	return nil
}

// SearchVideoFiles finds records matching the term across file name,
// title, description, and tag names. A blank term lists the whole
// catalog. Results carry tags and custom metadata.
func (s *MetadataService) SearchVideoFiles(ctx context.Context, term string) ([]*database.VideoFile, error) {
	return s.repo.Search(ctx, term)
}

// GetVideoFileByID fetches one record with associations.
func (s *MetadataService) GetVideoFileByID(ctx context.Context, id string) (*database.VideoFile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAllVideoFiles fetches every record with associations.
func (s *MetadataService) GetAllVideoFiles(ctx context.Context) ([]*database.VideoFile, error) {
	return s.repo.ListAll(ctx)
}

// ListTags returns every known tag.
func (s *MetadataService) ListTags(ctx context.Context) ([]*database.Tag, error) {
	return s.repo.ListTags(ctx)
}

// SetCustomMetadata writes one key/value entry on a video file.
func (s *MetadataService) SetCustomMetadata(ctx context.Context, id, key, value, valueType string) error {
	return s.repo.SetCustomMetadata(ctx, id, key, value, valueType)
}

// DeleteCustomMetadata removes one key/value entry from a video file.
func (s *MetadataService) DeleteCustomMetadata(ctx context.Context, id, key string) error {
	return s.repo.DeleteCustomMetadata(ctx, id, key)
}
