package videos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumiforge/vidgallery/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_List_PassesFilterAndNormalizes(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/videos", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id":"abc","uploadedAt":"2025-05-01T10:00:00Z","manifestUrl":"/content/abc/manifest.mpd","thumbnailUrl":"/content/abc/thumbnail.jpg"},
				{"id":"ext","uploadedAt":"2025-05-02T10:00:00Z","manifestUrl":"https://elsewhere.example.com/ext/manifest.mpd"}
			],
			"total": 2, "page": 1, "limit": 12, "hasMore": false
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "https://assets.example.com", 5*time.Second)
	page, err := c.List(context.Background(), Filter{
		Search:    "clip",
		SortBy:    SortUploadedAt,
		SortOrder: SortDesc,
		Page:      1,
		PageSize:  12,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"search":    "clip",
		"sortBy":    "uploadTime",
		"sortOrder": "desc",
		"page":      "1",
		"limit":     "12",
	}, gotQuery)

	require.Len(t, page.Data, 2)
	assert.Equal(t, "https://assets.example.com/abc/manifest.mpd", page.Data[0].ManifestURL)
	assert.Equal(t, "https://assets.example.com/abc/thumbnail.jpg", page.Data[0].ThumbnailURL)
	// Already-absolute locations pass through untouched.
	assert.Equal(t, "https://elsewhere.example.com/ext/manifest.mpd", page.Data[1].ManifestURL)
	assert.Equal(t, 2, page.Total)
	assert.False(t, page.HasMore)
}

func TestClient_List_ErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error","message":"failed to list videos"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.List(context.Background(), Filter{})

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.Fetch))
	assert.Contains(t, err.Error(), "failed to list videos")
}

func TestClient_Get_NotFoundOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos/missing", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found","message":"video not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	v, err := c.Get(context.Background(), "missing")

	assert.Nil(t, v)
	assert.True(t, apierr.IsNotFound(err))
}

func TestClient_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"clip","title":"clip","uploadedAt":"2025-05-01T10:00:00Z","manifestUrl":"/content/clip/manifest.mpd"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	v, err := c.Get(context.Background(), "clip")

	require.NoError(t, err)
	assert.Equal(t, "clip", v.ID)
	// No asset origin configured: the API origin serves /content/ itself.
	assert.Equal(t, srv.URL+"/content/clip/manifest.mpd", v.ManifestURL)
}

func TestClient_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/api/delete/clip":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"video not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)

	assert.NoError(t, c.Delete(context.Background(), "clip"))

	err := c.Delete(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.Delete))
	assert.Contains(t, err.Error(), "video not found")
}

func TestClient_NetworkErrorsHaveZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.List(context.Background(), Filter{})

	var e *apierr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 0, e.Status)
}

func TestClient_ResolveLocation(t *testing.T) {
	withAssets := NewClient("http://api.local", "https://assets.example.com", time.Second)
	apiOnly := NewClient("http://api.local", "", time.Second)

	assert.Equal(t, "", withAssets.ResolveLocation(""))
	assert.Equal(t,
		"https://assets.example.com/abc/manifest.mpd",
		withAssets.ResolveLocation("/content/abc/manifest.mpd"))
	assert.Equal(t,
		"https://cdn.example.com/x.mpd",
		withAssets.ResolveLocation("https://cdn.example.com/x.mpd"))
	assert.Equal(t,
		"http://api.local/content/abc/manifest.mpd",
		apiOnly.ResolveLocation("/content/abc/manifest.mpd"))
	assert.Equal(t,
		"https://assets.example.com/clip/manifest.mpd",
		withAssets.ManifestURL("clip"))
}
