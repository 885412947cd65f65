// Package utils provides file system helpers shared by the catalog
// modules.
package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// VideoExtensions contains the file extensions the catalog accepts.
// Matching is case-insensitive.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mkv": true,
	".mov": true,
	".wmv": true,
	".flv": true,
}

// IsVideoFile reports whether the path carries a supported video
// extension.
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return VideoExtensions[ext]
}

// TitleFromPath derives the default title for a file: the base name
// without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BestEffortCreationTime returns the closest available approximation of
// a file's creation time. File birth time is not portable, so the
// modification time serves as the fallback.
func BestEffortCreationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}

// IsRegularFile reports whether the path exists and is a regular file.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsDirectory reports whether the path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
