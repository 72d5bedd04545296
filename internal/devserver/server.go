// Package devserver is the development backend for the gallery client. It
// implements the directory, presign, upload sink, processing and delete
// endpoints so the client can be exercised without real infrastructure.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumiforge/vidgallery/internal/config"
	"github.com/lumiforge/vidgallery/internal/videos"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// Placeholder assets written when simulated processing finishes.
const placeholderManifest = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT0S" profiles="urn:mpeg:dash:profile:isoff-on-demand:2011">
  <Period></Period>
</MPD>
`

// Server wires the dev backend handlers together.
type Server struct {
	metas           MetadataStore
	presigner       Presigner
	contentDir      string
	processingDelay time.Duration
	log             *slog.Logger
	processed       prometheus.Counter
	router          *gin.Engine
}

func NewServer(cfg config.ServerConfig, metas MetadataStore, presigner Presigner, reg *prometheus.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if presigner == nil {
		presigner = LoopbackPresigner{}
	}

	s := &Server{
		metas:           metas,
		presigner:       presigner,
		contentDir:      cfg.ContentDir,
		processingDelay: cfg.ProcessingDelay,
		log:             log,
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "devserver",
			Name:      "processed_total",
			Help:      "Videos that finished simulated processing.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.processed)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/videos", s.listVideos)
		api.GET("/videos/:id", s.getVideo)
		api.POST("/presign-upload", s.presignUpload)
		api.POST("/process", s.startProcessing)
		api.DELETE("/delete/:id", s.deleteVideo)
	}
	r.PUT("/uploads/:id/:filename", s.acceptUpload)
	r.Static("/content", cfg.ContentDir)
	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	s.router = r
	return s
}

// Handler exposes the router for http.Server and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": http.StatusText(status), "message": msg})
}

func (s *Server) videoFromMeta(meta VideoMeta) videos.Video {
	return videos.Video{
		ID:           meta.ID,
		Title:        meta.ID,
		UploadedAt:   meta.UploadedAt,
		ManifestURL:  fmt.Sprintf("/content/%s/manifest.mpd", meta.ID),
		ThumbnailURL: fmt.Sprintf("/content/%s/thumbnail.jpg", meta.ID),
		Status:       meta.Status,
	}
}

func (s *Server) listVideos(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	search := strings.ToLower(c.Query("search"))
	sortBy := c.DefaultQuery("sortBy", string(videos.SortUploadedAt))
	sortOrder := c.DefaultQuery("sortOrder", string(videos.SortDesc))

	metas, err := s.metas.List(c.Request.Context())
	if err != nil {
		s.log.Error("failed to list video metadata", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to list videos")
		return
	}

	var ready []VideoMeta
	for _, meta := range metas {
		if meta.Status != StatusReady {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(meta.ID), search) {
			continue
		}
		ready = append(ready, meta)
	}

	sort.SliceStable(ready, func(i, j int) bool {
		var less bool
		switch sortBy {
		case string(videos.SortTitle):
			less = ready[i].ID < ready[j].ID
		default:
			less = ready[i].UploadedAt.Before(ready[j].UploadedAt)
		}
		if sortOrder == string(videos.SortDesc) {
			return !less
		}
		return less
	})

	total := len(ready)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	data := make([]videos.Video, 0, end-start)
	for _, meta := range ready[start:end] {
		data = append(data, s.videoFromMeta(meta))
	}

	c.JSON(http.StatusOK, videos.Page{
		Data:    data,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: end < total,
	})
}

func (s *Server) getVideo(c *gin.Context) {
	id := c.Param("id")
	meta, err := s.metas.Get(c.Request.Context(), id)
	if err != nil || meta.Status != StatusReady {
		respondError(c, http.StatusNotFound, "video not found")
		return
	}
	c.JSON(http.StatusOK, s.videoFromMeta(*meta))
}

type uploadRequest struct {
	VideoID  string `json:"videoId"`
	Filename string `json:"filename"`
}

func (s *Server) presignUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" || req.Filename == "" {
		respondError(c, http.StatusBadRequest, "videoId and filename are required")
		return
	}

	if _, err := s.metas.Get(c.Request.Context(), req.VideoID); err == nil {
		respondError(c, http.StatusConflict, fmt.Sprintf("video ID '%s' already exists", req.VideoID))
		return
	}

	origin := requestOrigin(c.Request)
	target, err := s.presigner.PresignUpload(c.Request.Context(), origin, req.VideoID, req.Filename)
	if err != nil {
		s.log.Error("failed to presign upload", "video_id", req.VideoID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to presign upload")
		return
	}
	c.JSON(http.StatusOK, target)
}

func (s *Server) acceptUpload(c *gin.Context) {
	id := filepath.Base(c.Param("id"))
	filename := filepath.Base(c.Param("filename"))
	dir := filepath.Join(s.contentDir, "uploads", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("failed to create upload dir", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		s.log.Error("failed to create upload file", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer f.Close()

	n, err := io.Copy(f, c.Request.Body)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store upload")
		return
	}

	s.log.Info("upload stored", "video_id", id, "filename", filename, "bytes", n)
	c.JSON(http.StatusOK, gin.H{"key": fmt.Sprintf("uploads/%s/%s", id, filename)})
}

func (s *Server) startProcessing(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" || req.Filename == "" {
		respondError(c, http.StatusBadRequest, "videoId and filename are required")
		return
	}

	meta := VideoMeta{ID: req.VideoID, UploadedAt: time.Now().UTC(), Status: StatusProcessing}
	if err := s.metas.Create(c.Request.Context(), meta); err != nil {
		if errors.Is(err, ErrMetaExists) {
			respondError(c, http.StatusConflict, fmt.Sprintf("video ID '%s' already exists", req.VideoID))
			return
		}
		s.log.Error("failed to create video metadata", "video_id", req.VideoID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to initialize video processing")
		return
	}

	go s.process(req.VideoID)

	c.JSON(http.StatusAccepted, gin.H{"videoId": req.VideoID, "status": "processing_started"})
}

// process simulates transcoding: after a configured delay it writes the
// placeholder manifest and thumbnail and flips the metadata to ready.
func (s *Server) process(id string) {
	time.Sleep(s.processingDelay)

	dir := filepath.Join(s.contentDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("failed to create content dir", "video_id", id, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.mpd"), []byte(placeholderManifest), 0o644); err != nil {
		s.log.Error("failed to write manifest", "video_id", id, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "thumbnail.jpg"), []byte{}, 0o644); err != nil {
		s.log.Error("failed to write thumbnail", "video_id", id, "error", err)
		return
	}

	if err := s.metas.UpdateStatus(context.Background(), id, StatusReady); err != nil {
		s.log.Error("failed to mark video ready", "video_id", id, "error", err)
		return
	}
	s.processed.Inc()
	s.log.Info("video processed", "video_id", id)
}

func (s *Server) deleteVideo(c *gin.Context) {
	id := c.Param("id")
	if err := s.metas.Delete(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusNotFound, "video not found")
		return
	}
	if err := os.RemoveAll(filepath.Join(s.contentDir, filepath.Base(id))); err != nil {
		s.log.Error("failed to remove content", "video_id", id, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "video deleted"})
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
