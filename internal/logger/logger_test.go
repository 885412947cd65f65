package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		Configure("info", "text")
	})
	return &buf
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Field{Key: "path", Value: "/a.mp4"}, String("path", "/a.mp4"))
	assert.Equal(t, Field{Key: "count", Value: 3}, Int("count", 3))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(fmt.Errorf("boom")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Err(nil))
}

func TestStructuredTextOutput(t *testing.T) {
	buf := captureOutput(t)
	Configure("info", "text")

	WarnS("Skipping file", String("path", "/a.mp4"), Err(fmt.Errorf("bad media")))

	out := buf.String()
	assert.Contains(t, out, "WARN: Skipping file")
	assert.Contains(t, out, "path=/a.mp4")
	assert.Contains(t, out, "error=bad media")
}

func TestStructuredJSONOutput(t *testing.T) {
	buf := captureOutput(t)
	Configure("info", "json")

	InfoS("Scan job completed", Int("processed", 5), String("path", "/media"))

	line := strings.TrimSpace(buf.String())
	start := strings.Index(line, "{")
	require.GreaterOrEqual(t, start, 0)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line[start:]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Scan job completed", entry["message"])
	assert.Equal(t, float64(5), entry["processed"])
	assert.Equal(t, "/media", entry["path"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	Configure("warn", "text")

	Debug("hidden %s", "debug")
	DebugS("hidden structured")
	Info("hidden info")
	Warn("visible warning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warning")
}
