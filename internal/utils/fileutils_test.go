package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVideoFile(t *testing.T) {
	assert.True(t, IsVideoFile("/media/clip.mp4"))
	assert.True(t, IsVideoFile("clip.MKV"))
	assert.True(t, IsVideoFile("a.b.c.mov"))
	assert.False(t, IsVideoFile("notes.txt"))
	assert.False(t, IsVideoFile("archive.mp4.bak"))
	assert.False(t, IsVideoFile("mp4"))
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "clip", TitleFromPath("/media/clip.mp4"))
	assert.Equal(t, "my.holiday", TitleFromPath("my.holiday.avi"))
	assert.Equal(t, "noext", TitleFromPath("/media/noext"))
}

func TestIsRegularFileAndIsDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, IsRegularFile(file))
	assert.False(t, IsRegularFile(dir))
	assert.True(t, IsDirectory(dir))
	assert.False(t, IsDirectory(file))
	assert.False(t, IsDirectory(filepath.Join(dir, "missing")))
}
