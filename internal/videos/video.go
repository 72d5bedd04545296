package videos

import "time"

// Video is a completed, playable asset as the directory reports it. Once the
// backend finished processing, a Video with a given ID never changes from the
// client's perspective; only deletion removes it.
type Video struct {
	ID              string    `json:"id"`
	EscapedID       string    `json:"escapedId,omitempty"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	DurationSeconds int64     `json:"duration,omitempty"`
	FileSizeBytes   int64     `json:"fileSize,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
	ManifestURL     string    `json:"manifestUrl,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	Status          string    `json:"status,omitempty"`
}

// SortField selects the directory ordering key.
type SortField string

const (
	SortUploadedAt SortField = "uploadTime"
	SortTitle      SortField = "title"
	SortDuration   SortField = "duration"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter narrows and pages a directory listing. Zero values are omitted from
// the request so the backend applies its own defaults.
type Filter struct {
	Search    string
	SortBy    SortField
	SortOrder SortDirection
	Page      int
	PageSize  int
}

// Page is one paginated slice of the directory.
type Page struct {
	Data    []Video `json:"data"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	HasMore bool    `json:"hasMore"`
}
