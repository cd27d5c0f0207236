package storage

import (
	"context"
	"sync"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

// MemoryPresetRepository keeps presets in process, encoded the same way as
// the S3 objects. Used when no bucket is configured.
type MemoryPresetRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// Ensure MemoryPresetRepository implements domain.PresetRepository
var _ domain.PresetRepository = (*MemoryPresetRepository)(nil)

// NewMemoryPresetRepository creates an empty in-memory preset repository
func NewMemoryPresetRepository() *MemoryPresetRepository {
	return &MemoryPresetRepository{
		blobs: make(map[string][]byte),
	}
}

func (r *MemoryPresetRepository) Load(ctx context.Context, userID string) ([]*domain.Preset, error) {
	r.mu.RLock()
	data := r.blobs[PresetKey(userID)]
	r.mu.RUnlock()

	return decodePresets(data)
}

func (r *MemoryPresetRepository) Save(ctx context.Context, userID string, presets []*domain.Preset) error {
	data, err := encodePresets(presets)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.blobs[PresetKey(userID)] = data
	r.mu.Unlock()
	return nil
}
