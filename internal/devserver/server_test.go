package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumiforge/vidgallery/internal/config"
	"github.com/lumiforge/vidgallery/internal/store"
	"github.com/lumiforge/vidgallery/internal/transfer"
	"github.com/lumiforge/vidgallery/internal/uploads"
	"github.com/lumiforge/vidgallery/internal/videos"
)

func newTestServer(t *testing.T, delay time.Duration) (*Server, *MemoryStore) {
	t.Helper()
	metas := NewMemoryStore()
	cfg := config.ServerConfig{ContentDir: t.TempDir(), ProcessingDelay: delay}
	return NewServer(cfg, metas, nil, prometheus.NewRegistry(), nil), metas
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func seedReady(t *testing.T, metas *MemoryStore, ids ...string) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		require.NoError(t, metas.Create(context.Background(), VideoMeta{
			ID:         id,
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
			Status:     StatusReady,
		}))
	}
}

func TestListVideos_PagingAndSearch(t *testing.T) {
	s, metas := newTestServer(t, 0)
	seedReady(t, metas, "alpha", "beta", "gamma")
	require.NoError(t, metas.Create(context.Background(), VideoMeta{ID: "pending", Status: StatusProcessing}))

	w := doJSON(t, s.Handler(), http.MethodGet, "/api/videos?page=1&limit=2&sortBy=uploadTime&sortOrder=desc", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page videos.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "gamma", page.Data[0].ID)
	assert.Equal(t, "/content/gamma/manifest.mpd", page.Data[0].ManifestURL)

	w = doJSON(t, s.Handler(), http.MethodGet, "/api/videos?search=BET", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "beta", page.Data[0].ID)
	assert.False(t, page.HasMore)
}

func TestGetVideo_HiddenUntilReady(t *testing.T) {
	s, metas := newTestServer(t, 0)
	require.NoError(t, metas.Create(context.Background(), VideoMeta{ID: "clip", Status: StatusProcessing}))

	w := doJSON(t, s.Handler(), http.MethodGet, "/api/videos/clip", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "video not found")

	require.NoError(t, metas.UpdateStatus(context.Background(), "clip", StatusReady))
	w = doJSON(t, s.Handler(), http.MethodGet, "/api/videos/clip", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPresignUpload(t *testing.T) {
	s, metas := newTestServer(t, 0)

	w := doJSON(t, s.Handler(), http.MethodPost, "/api/presign-upload", uploadRequest{VideoID: "clip", Filename: "clip.mp4"})
	require.Equal(t, http.StatusOK, w.Code)

	var target UploadTarget
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &target))
	assert.Equal(t, "PUT", target.Method)
	assert.Equal(t, "uploads/clip/clip.mp4", target.Key)
	assert.True(t, strings.HasSuffix(target.URL, "/uploads/clip/clip.mp4"))

	// Taken ids are rejected.
	seedReady(t, metas, "taken")
	w = doJSON(t, s.Handler(), http.MethodPost, "/api/presign-upload", uploadRequest{VideoID: "taken", Filename: "x.mp4"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "video ID 'taken' already exists")

	w = doJSON(t, s.Handler(), http.MethodPost, "/api/presign-upload", uploadRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessAndDelete(t *testing.T) {
	s, metas := newTestServer(t, time.Millisecond)

	w := doJSON(t, s.Handler(), http.MethodPost, "/api/process", uploadRequest{VideoID: "clip", Filename: "clip.mp4"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "processing_started")

	// Duplicate process call conflicts.
	w = doJSON(t, s.Handler(), http.MethodPost, "/api/process", uploadRequest{VideoID: "clip", Filename: "clip.mp4"})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Eventually(t, func() bool {
		meta, err := metas.Get(context.Background(), "clip")
		return err == nil && meta.Status == StatusReady
	}, 2*time.Second, 5*time.Millisecond)

	w = doJSON(t, s.Handler(), http.MethodDelete, "/api/delete/clip", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Handler(), http.MethodDelete, "/api/delete/clip", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// The full loop with real clients: presign, direct PUT to the loopback sink,
// processing notification, poll until ready, listing shows the new video.
func TestUploadLifecycleEndToEnd(t *testing.T) {
	s, _ := newTestServer(t, 10*time.Millisecond)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	st := store.New()
	dir := videos.NewClient(srv.URL, "", 5*time.Second)
	tc := transfer.NewClient(srv.URL, 5*time.Second, 5*time.Second)
	c := uploads.NewCoordinator(tc, dir, st,
		uploads.PollPolicy{Interval: 10 * time.Millisecond, MaxAttempts: 100}, nil, nil)

	payload := []byte("not really an mp4 but good enough for the sink")
	src := transfer.Source{
		Name: "clip.mp4",
		Size: int64(len(payload)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		},
	}

	id := c.Submit(context.Background(), src)
	c.Wait()

	rec, ok := st.Upload(id)
	require.True(t, ok)
	require.Equal(t, store.UploadCompleted, rec.Status, "error: %s", rec.ErrorMessage)
	assert.Equal(t, float64(100), rec.ProgressPercent)
	assert.Equal(t, "clip", rec.VideoID)

	gallery := st.Videos()
	require.Len(t, gallery, 1)
	assert.Equal(t, "clip", gallery[0].ID)
	assert.Equal(t, srv.URL+"/content/clip/manifest.mpd", gallery[0].ManifestURL)

	page, err := dir.List(context.Background(), videos.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "clip", page.Data[0].ID)
}
