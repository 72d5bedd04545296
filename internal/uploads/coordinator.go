// Package uploads owns the upload lifecycle state machine. One submission
// walks Pending → Transferring → AwaitingProcessing → Completed, or drops to
// Failed at any step; every transition lands in the store, which is the only
// state other components ever read.
package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lumiforge/vidgallery/internal/metrics"
	"github.com/lumiforge/vidgallery/internal/store"
	"github.com/lumiforge/vidgallery/internal/transfer"
	"github.com/lumiforge/vidgallery/internal/videos"
)

// TransferClient performs the three network operations behind one upload.
type TransferClient interface {
	RequestUploadTarget(ctx context.Context, candidateID, filename string) (*transfer.UploadTarget, error)
	TransferBytes(ctx context.Context, targetURL string, src transfer.Source, onProgress func(sent, total int64)) error
	NotifyProcessing(ctx context.Context, candidateID, filename string) (*transfer.ProcessAck, error)
}

// Directory is the single-video lookup used to detect that server-side
// processing finished.
type Directory interface {
	Get(ctx context.Context, id string) (*videos.Video, error)
}

// PollPolicy bounds the wait for server-side processing. Interval times
// MaxAttempts is the total budget, so together they must cover the realistic
// worst-case transcoding latency.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy tolerates five minutes of processing.
var DefaultPollPolicy = PollPolicy{
	Interval:    5 * time.Second,
	MaxAttempts: 60,
}

// Coordinator drives concurrent upload pipelines. Each submission runs on its
// own goroutine and mutates only its own record, so pipelines never interfere
// with each other.
type Coordinator struct {
	transfers TransferClient
	directory Directory
	store     *store.Store
	policy    PollPolicy
	metrics   *metrics.Uploads
	log       *slog.Logger
	wg        sync.WaitGroup
}

// NewCoordinator wires the pipeline. metrics may be nil; a nil logger falls
// back to the process default.
func NewCoordinator(t TransferClient, d Directory, st *store.Store, policy PollPolicy, m *metrics.Uploads, log *slog.Logger) *Coordinator {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollPolicy.Interval
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPollPolicy.MaxAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		transfers: t,
		directory: d,
		store:     st,
		policy:    policy,
		metrics:   m,
		log:       log,
	}
}

// CandidateID derives the id proposed to the backend from the file name. The
// backend keys storage and routing on it and rejects duplicates at presign
// time.
func CandidateID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Submit registers src in the upload queue and starts its pipeline. The
// returned id addresses the record in the store; dismissing the record does
// not stop the pipeline, whose late updates then fall into the store's
// id-addressed no-ops.
func (c *Coordinator) Submit(ctx context.Context, src transfer.Source) string {
	id := uuid.New().String()
	c.store.AddUpload(store.UploadRecord{
		ID:            id,
		FileName:      src.Name,
		FileSizeBytes: src.Size,
		Status:        store.UploadPending,
	})
	if c.metrics != nil {
		c.metrics.Started.Inc()
		c.metrics.InFlight.Inc()
	}

	c.wg.Add(1)
	go c.run(ctx, id, src)
	return id
}

// Wait blocks until every submitted pipeline has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context, id string, src transfer.Source) {
	defer c.wg.Done()
	defer func() {
		if c.metrics != nil {
			c.metrics.InFlight.Dec()
		}
	}()

	log := c.log.With("upload_id", id, "file", src.Name)
	candidateID := CandidateID(src.Name)

	target, err := c.transfers.RequestUploadTarget(ctx, candidateID, src.Name)
	if err != nil {
		c.fail(id, log, "presign", err)
		return
	}

	c.store.SetUploadStatus(id, store.UploadTransferring, "")

	var lastSent int64
	err = c.transfers.TransferBytes(ctx, target.URL, src, func(sent, total int64) {
		if total > 0 {
			c.store.SetUploadProgress(id, float64(sent)/float64(total)*100)
		}
		if c.metrics != nil && sent > lastSent {
			c.metrics.BytesSent.Add(float64(sent - lastSent))
			lastSent = sent
		}
	})
	if err != nil {
		c.fail(id, log, "transfer", err)
		return
	}

	ack, err := c.transfers.NotifyProcessing(ctx, candidateID, src.Name)
	if err != nil {
		c.fail(id, log, "notify", err)
		return
	}
	if ack == nil || ack.VideoID == "" {
		c.fail(id, log, "notify", fmt.Errorf("no video id returned"))
		return
	}

	c.store.SetUploadVideoID(id, ack.VideoID)
	c.store.SetUploadStatus(id, store.UploadProcessing, "")
	log.Info("awaiting processing", "video_id", ack.VideoID)

	video, err := c.awaitProcessed(ctx, log, ack.VideoID)
	if err != nil {
		c.fail(id, log, "processing", err)
		return
	}

	c.store.PrependVideo(*video)
	c.store.SetUploadStatus(id, store.UploadCompleted, "")
	if c.metrics != nil {
		c.metrics.Completed.Inc()
	}
	log.Info("upload completed", "video_id", video.ID)
}

// awaitProcessed polls the directory until the video exists, processed and
// fetchable. Each miss is expected and retried silently; only exhausting the
// attempt budget surfaces as an error.
func (c *Coordinator) awaitProcessed(ctx context.Context, log *slog.Logger, videoID string) (*videos.Video, error) {
	for attempt := 1; ; attempt++ {
		if c.metrics != nil {
			c.metrics.PollAttempts.Inc()
		}

		v, err := c.directory.Get(ctx, videoID)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug("video not ready yet", "video_id", videoID, "attempt", attempt, "error", err)

		if attempt >= c.policy.MaxAttempts {
			return nil, fmt.Errorf("processing timed out after %d attempts", c.policy.MaxAttempts)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.policy.Interval):
		}
	}
}

func (c *Coordinator) fail(id string, log *slog.Logger, step string, err error) {
	c.store.SetUploadStatus(id, store.UploadFailed, err.Error())
	if c.metrics != nil {
		c.metrics.Failed.Inc()
	}
	log.Error("upload failed", "step", step, "error", err)
}
