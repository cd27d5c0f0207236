package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/google/uuid"
)

// PresetService manages a user's saved report builder presets. All presets
// of a user live in one stored document, so writes are serialized.
type PresetService struct {
	repo domain.PresetRepository
	mu   sync.Mutex
	now  func() time.Time
}

// NewPresetService creates a new PresetService
func NewPresetService(repo domain.PresetRepository) *PresetService {
	return &PresetService{
		repo: repo,
		now:  time.Now,
	}
}

// List returns the user's presets ordered by name
func (s *PresetService) List(ctx context.Context, userID string) ([]*domain.Preset, error) {
	presets, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(presets, func(a, b *domain.Preset) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return presets, nil
}

// Get loads one preset
func (s *PresetService) Get(ctx context.Context, userID, id string) (*domain.Preset, error) {
	presets, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPresetNotFound
}

// Save stores p, overwriting the preset with the same id. An empty id
// creates a new preset.
func (s *PresetService) Save(ctx context.Context, userID string, p *domain.Preset) (*domain.Preset, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	presets, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.UpdatedAt = s.now().UTC()

	idx := slices.IndexFunc(presets, func(existing *domain.Preset) bool { return existing.ID == p.ID })
	if idx >= 0 {
		presets[idx] = p
	} else {
		presets = append(presets, p)
	}

	if err := s.repo.Save(ctx, userID, presets); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes one preset
func (s *PresetService) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets, err := s.repo.Load(ctx, userID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(presets, func(p *domain.Preset) bool { return p.ID == id })
	if idx < 0 {
		return domain.ErrPresetNotFound
	}
	return s.repo.Save(ctx, userID, slices.Delete(presets, idx, idx+1))
}
