package export

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact describes one stored export file.
type Artifact struct {
	StorageKey  string
	UserID      string
	EntityKind  string
	EntityID    string
	Format      Format
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// ArtifactRepo records stored artifacts so older versions can be pruned
// and cached files keep their download name.
type ArtifactRepo interface {
	Get(ctx context.Context, storageKey string) (Artifact, error)
	Save(ctx context.Context, a Artifact) error
	ListEntity(ctx context.Context, userID, kind, entityID string) ([]Artifact, error)
	Delete(ctx context.Context, storageKey string) error
}

// MemoryArtifactRepo keeps artifacts in process.
type MemoryArtifactRepo struct {
	mu    sync.Mutex
	items map[string]Artifact
}

func NewMemoryArtifactRepo() *MemoryArtifactRepo {
	return &MemoryArtifactRepo{items: map[string]Artifact{}}
}

func (r *MemoryArtifactRepo) Get(ctx context.Context, storageKey string) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[storageKey]
	if !ok {
		return Artifact{}, ErrArtifactNotFound
	}
	return a, nil
}

func (r *MemoryArtifactRepo) Save(ctx context.Context, a Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.StorageKey] = a
	return nil
}

func (r *MemoryArtifactRepo) ListEntity(ctx context.Context, userID, kind, entityID string) ([]Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Artifact
	for _, a := range r.items {
		if a.UserID == userID && a.EntityKind == kind && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryArtifactRepo) Delete(ctx context.Context, storageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, storageKey)
	return nil
}

var _ ArtifactRepo = (*MemoryArtifactRepo)(nil)
