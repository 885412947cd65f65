// Package repository provides the data access layer for the video
// catalog.
package repository

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/errors"
	"gorm.io/gorm"
)

// VideoRepository handles all database operations for video files, tags,
// and custom metadata.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByPath retrieves a video file by its exact path, without
// associations. Returns a NOT_FOUND error when no record exists.
func (r *VideoRepository) GetByPath(ctx context.Context, path string) (*database.VideoFile, error) {
	var file database.VideoFile
	err := r.db.WithContext(ctx).Where("file_path = ?", path).First(&file).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("video file", path)
		}
		return nil, errors.NewDatabaseError("get video by path", err)
	}
	return &file, nil
}

// GetByID retrieves a video file with its tags and custom metadata.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*database.VideoFile, error) {
	var file database.VideoFile
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("CustomMetadata").
		Where("id = ?", id).
		First(&file).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("video file", id)
		}
		return nil, errors.NewDatabaseError("get video by id", err)
	}
	return &file, nil
}

// ListAll retrieves every video file with associations.
func (r *VideoRepository) ListAll(ctx context.Context) ([]*database.VideoFile, error) {
	var files []*database.VideoFile
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("CustomMetadata").
		Find(&files).Error
	if err != nil {
		return nil, errors.NewDatabaseError("list videos", err)
	}
	return files, nil
}

// Search retrieves video files whose file name, title, description, or
// any associated tag name contains the term, case-insensitively.
// A blank term lists everything.
func (r *VideoRepository) Search(ctx context.Context, term string) ([]*database.VideoFile, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListAll(ctx)
	}

	pattern := "%" + strings.ToLower(term) + "%"
	tagMatch := r.db.
		Table("video_file_tags").
		Select("video_file_tags.video_file_id").
		Joins("JOIN tags ON tags.id = video_file_tags.tag_id").
		Where("LOWER(tags.name) LIKE ?", pattern)

	var files []*database.VideoFile
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("CustomMetadata").
		Where(
			r.db.Where("LOWER(file_name) LIKE ?", pattern).
				Or("LOWER(title) LIKE ?", pattern).
				Or("LOWER(description) LIKE ?", pattern).
				Or("id IN (?)", tagMatch),
		).
		Find(&files).Error
	if err != nil {
		return nil, errors.NewDatabaseError("search videos", err)
	}
	return files, nil
}

// Upsert writes a video file record keyed by path. When a record already
// exists for the path, only the technical fields are refreshed; the
// user-editable fields (title, description, date taken) keep their stored
// values. A unique-constraint race on insert falls back to the update
// path, so concurrent callers cannot create duplicates.
func (r *VideoRepository) Upsert(ctx context.Context, incoming *database.VideoFile) (*database.VideoFile, error) {
	var result *database.VideoFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		saved, err := upsertInTx(tx, incoming)
		if err != nil {
			return err
		}
		result = saved
		return nil
	})
	if err != nil {
		var ce *errors.CatalogError
		if stderrors.As(err, &ce) {
			return nil, ce
		}
		return nil, errors.NewDatabaseError("upsert video", err)
	}
	return result, nil
}

func upsertInTx(tx *gorm.DB, incoming *database.VideoFile) (*database.VideoFile, error) {
	var existing database.VideoFile
	err := tx.Where("file_path = ?", incoming.FilePath).First(&existing).Error
	switch {
	case err == nil:
		return refreshTechnical(tx, &existing, incoming)
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		if createErr := tx.Create(incoming).Error; createErr != nil {
			if stderrors.Is(createErr, gorm.ErrDuplicatedKey) {
				// Lost an insert race; the record exists now.
				if err := tx.Where("file_path = ?", incoming.FilePath).First(&existing).Error; err != nil {
					return nil, err
				}
				return refreshTechnical(tx, &existing, incoming)
			}
			return nil, createErr
		}
		return incoming, nil
	default:
		return nil, err
	}
}

// refreshTechnical overwrites the prober-owned fields of an existing
// record and bumps its update timestamp. Editable fields are not touched.
func refreshTechnical(tx *gorm.DB, existing, incoming *database.VideoFile) (*database.VideoFile, error) {
	existing.FileName = incoming.FileName
	existing.FileSize = incoming.FileSize
	existing.LastModified = incoming.LastModified
	existing.Duration = incoming.Duration
	existing.Resolution = incoming.Resolution
	existing.VideoCodec = incoming.VideoCodec
	existing.AudioCodec = incoming.AudioCodec
	existing.FrameRate = incoming.FrameRate
	existing.BitrateKbps = incoming.BitrateKbps
	existing.UpdatedAt = time.Now()

	if err := tx.Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// UpdateDetails applies user edits to a video file's editable fields.
func (r *VideoRepository) UpdateDetails(ctx context.Context, id string, title, description string, dateTaken *time.Time) (*database.VideoFile, error) {
	var file database.VideoFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&file).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("video file", id)
			}
			return err
		}
		file.Title = title
		file.Description = description
		file.DateTaken = dateTaken
		file.UpdatedAt = time.Now()
		return tx.Save(&file).Error
	})
	if err != nil {
		var ce *errors.CatalogError
		if stderrors.As(err, &ce) {
			return nil, ce
		}
		return nil, errors.NewDatabaseError("update video details", err)
	}
	return r.GetByID(ctx, id)
}

// ReplaceTags atomically replaces the tag set of a video file. Tags are
// created on first use; detached tags survive as entities. Lookup is
// case-insensitive so differently-cased spellings resolve to one tag.
func (r *VideoRepository) ReplaceTags(ctx context.Context, id string, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var file database.VideoFile
		if err := tx.Where("id = ?", id).First(&file).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("video file", id)
			}
			return err
		}

		tags := make([]database.Tag, 0, len(tagNames))
		seen := make(map[string]bool, len(tagNames))
		for _, name := range tagNames {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true

			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			tags = append(tags, *tag)
		}

		if err := tx.Model(&file).Association("Tags").Replace(tags); err != nil {
			return err
		}

		return tx.Model(&file).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		var ce *errors.CatalogError
		if stderrors.As(err, &ce) {
			return ce
		}
		return errors.NewDatabaseError("replace tags", err)
	}
	return nil
}

func getOrCreateTag(tx *gorm.DB, name string) (*database.Tag, error) {
	var tag database.Tag
	err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = database.Tag{Name: name, Color: database.DefaultTagColor}
	if err := tx.Create(&tag).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			// Created concurrently; read it back.
			if lookupErr := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&tag).Error; lookupErr == nil {
				return &tag, nil
			}
		}
		return nil, err
	}
	return &tag, nil
}

// ListTags returns every known tag.
func (r *VideoRepository) ListTags(ctx context.Context) ([]*database.Tag, error) {
	var tags []*database.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, errors.NewDatabaseError("list tags", err)
	}
	return tags, nil
}

// SetCustomMetadata writes a key/value entry for a video file, updating
// the existing entry for the key if one exists.
func (r *VideoRepository) SetCustomMetadata(ctx context.Context, id, key, value, valueType string) error {
	if valueType == "" {
		valueType = "string"
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var file database.VideoFile
		if err := tx.Where("id = ?", id).First(&file).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NewNotFoundError("video file", id)
			}
			return err
		}

		var entry database.CustomMetadataEntry
		err := tx.Where("video_file_id = ? AND key = ?", id, key).First(&entry).Error
		switch {
		case err == nil:
			entry.Value = value
			entry.ValueType = valueType
			entry.UpdatedAt = time.Now()
			return tx.Save(&entry).Error
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			entry = database.CustomMetadataEntry{
				VideoFileID: id,
				Key:         key,
				Value:       value,
				ValueType:   valueType,
			}
			return tx.Create(&entry).Error
		default:
			return err
		}
	})
	if err != nil {
		var ce *errors.CatalogError
		if stderrors.As(err, &ce) {
			return ce
		}
		return errors.NewDatabaseError("set custom metadata", err)
	}
	return nil
}

// DeleteCustomMetadata removes a key/value entry from a video file.
func (r *VideoRepository) DeleteCustomMetadata(ctx context.Context, id, key string) error {
	result := r.db.WithContext(ctx).
		Where("video_file_id = ? AND key = ?", id, key).
		Delete(&database.CustomMetadataEntry{})
	if result.Error != nil {
		return errors.NewDatabaseError("delete custom metadata", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("custom metadata entry", key)
	}
	return nil
}

// Count returns the number of cataloged video files.
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.VideoFile{}).Count(&count).Error; err != nil {
		return 0, errors.NewDatabaseError("count videos", err)
	}
	return count, nil
}
