// Package store holds the canonical in-memory application state: the video
// collection, filter and pagination state, the current video, and the queue
// of in-flight uploads. Every mutation goes through a method on Store; no
// other component touches the collections directly, and readers always get
// copies, never aliases into the guarded state.
package store

import (
	"sync"

	"github.com/lumiforge/vidgallery/internal/videos"
)

// UploadStatus is the lifecycle position of one upload record.
type UploadStatus string

const (
	UploadPending      UploadStatus = "pending"
	UploadTransferring UploadStatus = "transferring"
	UploadProcessing   UploadStatus = "processing"
	UploadCompleted    UploadStatus = "completed"
	UploadFailed       UploadStatus = "failed"
)

// Terminal reports whether no further transition can happen.
func (s UploadStatus) Terminal() bool {
	return s == UploadCompleted || s == UploadFailed
}

// UploadRecord tracks one client-initiated upload from submission until the
// user dismisses it from the queue.
type UploadRecord struct {
	ID              string
	FileName        string
	FileSizeBytes   int64
	ProgressPercent float64
	Status          UploadStatus
	ErrorMessage    string
	// VideoID is the server-assigned id, known once the transfer target
	// was issued. Distinct from ID, which is client-generated.
	VideoID string
}

// Filters is the user-controlled listing state.
type Filters struct {
	Search    string
	SortBy    videos.SortField
	SortOrder videos.SortDirection
}

// Pagination mirrors the directory's paging fields.
type Pagination struct {
	Page     int
	PageSize int
	Total    int
	HasMore  bool
}

// Store is the single mutation point for application state. All methods are
// safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	videos     []videos.Video
	uploads    []UploadRecord
	current    *videos.Video
	filters    Filters
	pagination Pagination
	listErr    string
	subs       []chan struct{}
}

// New builds an empty store with the default listing state.
func New() *Store {
	return &Store{
		filters: Filters{
			SortBy:    videos.SortUploadedAt,
			SortOrder: videos.SortDesc,
		},
		pagination: Pagination{
			Page:     1,
			PageSize: 12,
		},
	}
}

// Subscribe returns a channel that receives a coalesced signal after every
// committed mutation. Receivers that lag never block mutations.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// --- video collection ---

// SetVideoPage replaces the video collection and pagination from a successful
// directory fetch and clears any previous listing error.
func (s *Store) SetVideoPage(page *videos.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos = append([]videos.Video(nil), page.Data...)
	s.pagination = Pagination{
		Page:     page.Page,
		PageSize: page.Limit,
		Total:    page.Total,
		HasMore:  page.HasMore,
	}
	s.listErr = ""
	s.notifyLocked()
}

// PrependVideo merges a freshly processed video at the head of the
// collection, most recent first. An existing entry with the same id is
// replaced rather than duplicated.
func (s *Store) PrependVideo(v videos.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rest := make([]videos.Video, 0, len(s.videos)+1)
	rest = append(rest, v)
	for _, existing := range s.videos {
		if existing.ID != v.ID {
			rest = append(rest, existing)
		}
	}
	s.videos = rest
	s.pagination.Total++
	s.notifyLocked()
}

// RemoveVideo removes exactly the entry with the given id, leaving the rest
// in their original order. It reports whether an entry was removed.
func (s *Store) RemoveVideo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.videos {
		if v.ID == id {
			s.videos = append(s.videos[:i], s.videos[i+1:]...)
			if s.pagination.Total > 0 {
				s.pagination.Total--
			}
			s.notifyLocked()
			return true
		}
	}
	return false
}

// Videos returns a snapshot of the collection.
func (s *Store) Videos() []videos.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]videos.Video(nil), s.videos...)
}

// SetCurrentVideo records the video being viewed; nil clears it.
func (s *Store) SetCurrentVideo(v *videos.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		s.current = nil
	} else {
		cp := *v
		s.current = &cp
	}
	s.notifyLocked()
}

// CurrentVideo returns a copy of the video being viewed, or nil.
func (s *Store) CurrentVideo() *videos.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// --- listing error ---

// SetListError records a failed fetch without discarding previously loaded
// data, so the UI can show stale-but-present entries next to an error banner.
func (s *Store) SetListError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = msg
	s.notifyLocked()
}

// ClearListError drops the error banner.
func (s *Store) ClearListError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = ""
	s.notifyLocked()
}

// ListError returns the current listing error, empty when healthy.
func (s *Store) ListError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listErr
}

// --- filters ---

// SetFilters replaces the listing filters.
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.notifyLocked()
}

// Filters returns the current listing filters.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// PaginationState returns the current paging fields.
func (s *Store) PaginationState() Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// --- upload queue ---

// AddUpload appends a record to the upload queue in submission order.
func (s *Store) AddUpload(rec UploadRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, rec)
	s.notifyLocked()
}

// Upload returns a copy of the record with the given id.
func (s *Store) Upload(id string) (UploadRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.uploads {
		if rec.ID == id {
			return rec, true
		}
	}
	return UploadRecord{}, false
}

// Uploads returns a snapshot of the queue in submission order.
func (s *Store) Uploads() []UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]UploadRecord(nil), s.uploads...)
}

// SetUploadProgress updates the progress of exactly one record. Progress
// never moves backwards and terminal records are frozen; updates addressed
// to a dismissed record are silently dropped.
func (s *Store) SetUploadProgress(id string, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.uploadLocked(id)
	if rec == nil || rec.Status.Terminal() {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent > rec.ProgressPercent {
		rec.ProgressPercent = percent
		s.notifyLocked()
	}
}

// SetUploadStatus transitions exactly one record. Terminal records never
// transition again, and a dismissed record is not resurrected by a late
// callback.
func (s *Store) SetUploadStatus(id string, status UploadStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.uploadLocked(id)
	if rec == nil || rec.Status.Terminal() {
		return
	}
	rec.Status = status
	if errMsg != "" {
		rec.ErrorMessage = errMsg
	}
	if status == UploadCompleted {
		rec.ProgressPercent = 100
	}
	s.notifyLocked()
}

// SetUploadVideoID links the record to its server-assigned video id.
func (s *Store) SetUploadVideoID(id, videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.uploadLocked(id)
	if rec == nil {
		return
	}
	rec.VideoID = videoID
	s.notifyLocked()
}

// RemoveUpload dismisses a record from the queue at any status. This is pure
// bookkeeping: in-flight network work for the record is not cancelled, and
// its eventual callbacks find nothing to mutate.
func (s *Store) RemoveUpload(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.uploads {
		if rec.ID == id {
			s.uploads = append(s.uploads[:i], s.uploads[i+1:]...)
			s.notifyLocked()
			return
		}
	}
}

func (s *Store) uploadLocked(id string) *UploadRecord {
	for i := range s.uploads {
		if s.uploads[i].ID == id {
			return &s.uploads[i]
		}
	}
	return nil
}
