package storage

import (
	"context"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetKey(t *testing.T) {
	assert.Equal(t, "presets/auth0%7Cabc123.json", PresetKey("auth0|abc123"))
	assert.Equal(t, "presets/a%2Fb.json", PresetKey("a/b"))
}

func TestMemoryPresetRepository_EmptyUser(t *testing.T) {
	repo := NewMemoryPresetRepository()

	presets, err := repo.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, presets)
	assert.Empty(t, presets)
}

func TestMemoryPresetRepository_SaveLoad(t *testing.T) {
	repo := NewMemoryPresetRepository()
	ctx := context.Background()
	expense := domain.TransactionTypeExpense
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	saved := []*domain.Preset{{
		ID:        "p1",
		Name:      "Monthly expenses",
		Fields:    []domain.ReportField{domain.FieldDate, domain.FieldAmount},
		Type:      &expense,
		StartDate: &start,
		GroupBy:   domain.GroupByMonth,
		SortBy:    domain.SortByDateAsc,
	}}
	require.NoError(t, repo.Save(ctx, "u1", saved))

	loaded, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Monthly expenses", loaded[0].Name)
	assert.Equal(t, domain.GroupByMonth, loaded[0].GroupBy)
	require.NotNil(t, loaded[0].Type)
	assert.Equal(t, expense, *loaded[0].Type)
	assert.True(t, start.Equal(*loaded[0].StartDate))

	// stored encoded, so callers cannot mutate it in place
	loaded[0].Name = "changed"
	again, _ := repo.Load(ctx, "u1")
	assert.Equal(t, "Monthly expenses", again[0].Name)

	other, err := repo.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDecodePresets(t *testing.T) {
	presets, err := decodePresets([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, presets)

	presets, err = decodePresets([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, presets)

	_, err = decodePresets([]byte("{"))
	assert.Error(t, err)
}
