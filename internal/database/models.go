package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTagColor is assigned to tags created without an explicit color.
const DefaultTagColor = "#0078D7"

// VideoFile represents one cataloged video file. There is at most one
// record per absolute file path, enforced by the unique index.
type VideoFile struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileName     string    `gorm:"not null" json:"file_name"`
	FilePath     string    `gorm:"not null;uniqueIndex" json:"file_path"`
	FileSize     int64     `json:"file_size"`
	LastModified time.Time `json:"last_modified"`

	// Technical metadata from the prober; overwritten on every re-scan.
	Duration    float64 `json:"duration"`     // seconds
	Resolution  string  `json:"resolution"`   // e.g. 1920x1080
	VideoCodec  string  `json:"video_codec"`  // e.g. h264
	AudioCodec  string  `json:"audio_codec"`  // e.g. aac
	FrameRate   float64 `json:"frame_rate"`   // frames per second
	BitrateKbps int     `json:"bitrate_kbps"` // primary video stream bitrate

	// User-editable metadata; preserved across re-scans.
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DateTaken   *time.Time `json:"date_taken,omitempty"`

	Tags           []Tag                 `gorm:"many2many:video_file_tags;" json:"tags"`
	CustomMetadata []CustomMetadataEntry `gorm:"constraint:OnDelete:CASCADE;" json:"custom_metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID primary key for new video files.
func (v *VideoFile) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// Tag is a named label that can be attached to any number of video files.
// Tags are created lazily and never deleted automatically.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`

	Videos []VideoFile `gorm:"many2many:video_file_tags;" json:"-"`
}

// BeforeCreate applies the default display color when none is set.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.Color == "" {
		t.Color = DefaultTagColor
	}
	return nil
}

// CustomMetadataEntry is a free-form key/value pair owned by one video
// file, unique per (video file, key).
type CustomMetadataEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VideoFileID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_video_meta_key" json:"video_file_id"`
	Key         string    `gorm:"not null;uniqueIndex:idx_video_meta_key" json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `gorm:"default:string" json:"value_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scan job lifecycle states.
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
	ScanStatusCancelled = "cancelled"
)

// ScanJob tracks one directory scan from start to completion.
type ScanJob struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Path           string     `gorm:"not null" json:"path"`
	Recursive      bool       `json:"recursive"`
	Status         string     `gorm:"not null;index" json:"status"`
	FilesFound     int        `json:"files_found"`
	FilesProcessed int        `json:"files_processed"`
	FilesSkipped   int        `json:"files_skipped"`
	Progress       int        `json:"progress"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SystemEvent is a persisted record of a published event.
type SystemEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"not null;index" json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
