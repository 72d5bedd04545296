package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lumiforge/vidgallery/internal/apierr"
)

// contentPrefix is the storage-relative path prefix the backend uses when it
// reports asset locations instead of absolute URLs.
const contentPrefix = "/content/"

// Client fetches the video directory over the gallery REST API and normalizes
// asset locations into one fully-qualified form before they reach the store.
type Client struct {
	baseURL   string
	assetBase string
	http      *http.Client
}

// NewClient builds a directory client. assetBaseURL may be empty, in which
// case storage-relative locations resolve against the API origin.
func NewClient(baseURL, assetBaseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		assetBase: strings.TrimRight(assetBaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// List fetches one page of the directory.
func (c *Client) List(ctx context.Context, f Filter) (*Page, error) {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("limit", strconv.Itoa(f.PageSize))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SortBy != "" {
		q.Set("sortBy", string(f.SortBy))
	}
	if f.SortOrder != "" {
		q.Set("sortOrder", string(f.SortOrder))
	}

	endpoint := c.baseURL + "/api/videos"
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, apierr.Network(apierr.Fetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.FromResponse(apierr.Fetch, resp)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode video list: %w", err)
	}
	for i := range page.Data {
		c.normalize(&page.Data[i])
	}
	return &page, nil
}

// Get fetches a single video. A non-2xx response maps to apierr.NotFound:
// during upload polling that is the expected "not ready yet" signal, not an
// exceptional condition.
func (c *Client) Get(ctx context.Context, id string) (*Video, error) {
	resp, err := c.get(ctx, c.baseURL+"/api/videos/"+url.PathEscape(id))
	if err != nil {
		return nil, apierr.Network(apierr.NotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.FromResponse(apierr.NotFound, resp)
	}

	var v Video
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode video %q: %w", id, err)
	}
	c.normalize(&v)
	return &v, nil
}

// Delete removes a video from the directory. The caller owns the follow-up
// store mutation; nothing is removed optimistically.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/delete/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.Network(apierr.Delete, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromResponse(apierr.Delete, resp)
	}
	return nil
}

// ManifestURL returns the fully-qualified manifest location for a video id.
func (c *Client) ManifestURL(id string) string {
	return c.ResolveLocation(contentPrefix + url.PathEscape(id) + "/manifest.mpd")
}

// ResolveLocation maps a storage-relative asset location onto the configured
// asset origin. Absolute URLs pass through unchanged. This is a pure
// transform; it never consults the network.
func (c *Client) ResolveLocation(loc string) string {
	if loc == "" {
		return ""
	}
	if u, err := url.Parse(loc); err == nil && u.IsAbs() {
		return loc
	}
	if c.assetBase == "" {
		return c.baseURL + "/" + strings.TrimLeft(loc, "/")
	}
	// The asset origin serves objects at the root, so the backend's
	// /content/ routing prefix is stripped before joining.
	rel := strings.TrimPrefix(loc, contentPrefix)
	return c.assetBase + "/" + strings.TrimLeft(rel, "/")
}

func (c *Client) normalize(v *Video) {
	v.ManifestURL = c.ResolveLocation(v.ManifestURL)
	v.ThumbnailURL = c.ResolveLocation(v.ThumbnailURL)
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}
