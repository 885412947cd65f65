package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/modules/videomodule/probe"
	"github.com/mantonx/vidvault/internal/modules/videomodule/repository"
	"github.com/mantonx/vidvault/internal/modules/videomodule/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type staticProber struct{}

func (staticProber) Probe(ctx context.Context, path string) (*probe.MediaInfo, error) {
	return &probe.MediaInfo{
		DurationSeconds: 90,
		VideoStreams:    []probe.VideoStream{{Codec: "h264", Width: 1280, Height: 720, BitRate: 2_000_000}},
		AudioStreams:    []probe.AudioStream{{Codec: "aac"}},
	}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *service.MetadataService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	))

	svc := service.NewMetadataService(repository.NewVideoRepository(db), staticProber{}, nil)

	router := gin.New()
	RegisterRoutes(router, NewHandler(svc))
	return router, svc
}

func catalogFile(t *testing.T, svc *service.MetadataService) *database.VideoFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	record, err := svc.ExtractMetadata(context.Background(), path)
	require.NoError(t, err)
	saved, err := svc.SaveVideoFile(context.Background(), record)
	require.NoError(t, err)
	return saved
}

func doJSON(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetVideosEmptyCatalog(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/videos/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
}

func TestGetVideoByID(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)

	w := doJSON(router, http.MethodGet, "/api/videos/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got database.VideoFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "clip.mp4", got.FileName)
}

func TestGetVideoNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/videos/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateVideoDetails(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)

	w := doJSON(router, http.MethodPut, "/api/videos/"+saved.ID, gin.H{
		"title":       "Edited",
		"description": "new description",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got database.VideoFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Edited", got.Title)
	assert.Equal(t, "new description", got.Description)
}

func TestUpdateTagsEndpoint(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)

	w := doJSON(router, http.MethodPut, "/api/videos/"+saved.ID+"/tags", gin.H{
		"tags": []string{"family", "2024"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got database.VideoFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Tags, 2)
}

func TestSearchByQueryParam(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)
	require.NoError(t, svc.UpdateTags(context.Background(), saved.ID, []string{"beach"}))

	w := doJSON(router, http.MethodGet, "/api/videos/?q=beach", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = doJSON(router, http.MethodGet, "/api/videos/?q=nomatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
}

func TestCustomMetadataEndpoints(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)

	w := doJSON(router, http.MethodPut, "/api/videos/"+saved.ID+"/metadata/camera", gin.H{
		"value": "GoPro",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/videos/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got database.VideoFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.CustomMetadata, 1)
	assert.Equal(t, "GoPro", got.CustomMetadata[0].Value)

	w = doJSON(router, http.MethodDelete, "/api/videos/"+saved.ID+"/metadata/camera", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/videos/"+saved.ID+"/metadata/camera", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTagsEndpoint(t *testing.T) {
	router, svc := setupRouter(t)
	saved := catalogFile(t, svc)
	require.NoError(t, svc.UpdateTags(context.Background(), saved.ID, []string{"a", "b"}))

	w := doJSON(router, http.MethodGet, "/api/tags/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}
