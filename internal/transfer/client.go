// Package transfer performs the three network operations behind one upload:
// request an upload target, stream the bytes to it, and kick off server-side
// processing. Everything else about the upload lifecycle lives in the
// coordinator; this client is purely request/response plus a progress
// callback.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumiforge/vidgallery/internal/apierr"
)

// Source describes one local file queued for upload. Open is called once per
// transfer attempt so the reader always starts at offset zero.
type Source struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileSource builds a Source for a file on disk.
func FileSource(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return Source{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadTarget is a one-time destination for the file's bytes.
type UploadTarget struct {
	URL    string `json:"url"`
	Method string `json:"method,omitempty"`
	Key    string `json:"key,omitempty"`
}

// ProcessAck is the backend's answer to a processing kickoff.
type ProcessAck struct {
	VideoID string `json:"videoId"`
	Status  string `json:"status,omitempty"`
}

// Client talks to the gallery backend's upload endpoints. Control-plane
// requests (presign, notify) and the byte transfer use separate HTTP clients
// because a multi-gigabyte PUT needs a far longer timeout than a JSON call.
type Client struct {
	baseURL string
	api     *http.Client
	put     *http.Client
}

// NewClient builds a transport client for the given API origin.
func NewClient(baseURL string, apiTimeout, transferTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     &http.Client{Timeout: apiTimeout},
		put:     &http.Client{Timeout: transferTimeout},
	}
}

// RequestUploadTarget asks the backend for a presigned destination to receive
// the file's bytes.
func (c *Client) RequestUploadTarget(ctx context.Context, candidateID, filename string) (*UploadTarget, error) {
	var target UploadTarget
	if err := c.postJSON(ctx, "/api/presign-upload", candidateID, filename, apierr.Presign, &target); err != nil {
		return nil, err
	}
	if target.URL == "" {
		return nil, apierr.New(apierr.Presign, http.StatusOK, "no upload url returned")
	}
	return &target, nil
}

// NotifyProcessing tells the backend the object landed and processing should
// begin.
func (c *Client) NotifyProcessing(ctx context.Context, candidateID, filename string) (*ProcessAck, error) {
	var ack ProcessAck
	if err := c.postJSON(ctx, "/api/process", candidateID, filename, apierr.Notify, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// TransferBytes streams the file to targetURL with a single raw PUT.
// onProgress receives cumulative byte counts on every read tick. There is no
// automatic retry; any failure is terminal for this attempt.
func (c *Client) TransferBytes(ctx context.Context, targetURL string, src Source, onProgress func(sent, total int64)) error {
	body, err := src.Open()
	if err != nil {
		return apierr.Network(apierr.Transfer, fmt.Errorf("failed to open source: %w", err))
	}

	pr := &progressReader{
		r:          body,
		total:      src.Size,
		onProgress: onProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, targetURL, pr)
	if err != nil {
		body.Close()
		return apierr.Network(apierr.Transfer, fmt.Errorf("failed to create transfer request: %w", err))
	}
	req.ContentLength = src.Size
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := c.put.Do(req)
	if err != nil {
		return apierr.Network(apierr.Transfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromResponse(apierr.TransferRejected, resp)
	}

	// The transport may have buffered the tail of the file; emit the final
	// tick so the caller always observes 100%.
	if onProgress != nil {
		onProgress(src.Size, src.Size)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, candidateID, filename string, kind apierr.Kind, out interface{}) error {
	payload, err := json.Marshal(map[string]string{
		"videoId":  candidateID,
		"filename": filename,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		return apierr.Network(kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromResponse(kind, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// progressReader counts bytes as the HTTP transport consumes them and closes
// the underlying file when the request body is done.
type progressReader struct {
	r          io.ReadCloser
	total      int64
	sent       int64
	onProgress func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.sent, p.total)
		}
	}
	return n, err
}

func (p *progressReader) Close() error {
	return p.r.Close()
}
