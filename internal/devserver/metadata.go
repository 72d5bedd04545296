package devserver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrMetaNotFound is returned when no metadata exists for a video id.
	ErrMetaNotFound = errors.New("video metadata not found")
	// ErrMetaExists is returned when a video id is already taken.
	ErrMetaExists = errors.New("video metadata already exists")
)

// Processing states a video moves through on the backend.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
)

// VideoMeta is the backend's record of one uploaded video.
type VideoMeta struct {
	ID         string
	UploadedAt time.Time
	Status     string
}

// MetadataStore persists video metadata. Implementations must be safe for
// concurrent use.
type MetadataStore interface {
	Create(ctx context.Context, meta VideoMeta) error
	Get(ctx context.Context, id string) (*VideoMeta, error)
	List(ctx context.Context) ([]VideoMeta, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps metadata in process memory. It is the default backend for
// local development.
type MemoryStore struct {
	mu    sync.RWMutex
	metas map[string]VideoMeta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{metas: make(map[string]VideoMeta)}
}

func (s *MemoryStore) Create(ctx context.Context, meta VideoMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.metas[meta.ID]; ok {
		return ErrMetaExists
	}
	s.metas[meta.ID] = meta
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*VideoMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metas[id]
	if !ok {
		return nil, ErrMetaNotFound
	}
	return &meta, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]VideoMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]VideoMeta, 0, len(s.metas))
	for _, meta := range s.metas {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.metas[id]
	if !ok {
		return ErrMetaNotFound
	}
	meta.Status = status
	s.metas[id] = meta
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.metas[id]; !ok {
		return ErrMetaNotFound
	}
	delete(s.metas, id)
	return nil
}
