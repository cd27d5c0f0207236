package service

import (
	"context"
	"errors"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetService_SaveListGetDelete(t *testing.T) {
	repo := testutil.NewMockPresetRepository()
	svc := NewPresetService(repo)
	ctx := context.Background()

	created, err := svc.Save(ctx, testUser, &domain.Preset{
		Name:    "  Yearly by category ",
		GroupBy: domain.GroupByCategory,
		SortBy:  domain.SortByAmountDesc,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Yearly by category", created.Name)
	assert.False(t, created.UpdatedAt.IsZero())

	_, err = svc.Save(ctx, testUser, &domain.Preset{Name: "A monthly view", GroupBy: domain.GroupByMonth})
	require.NoError(t, err)

	list, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A monthly view", list[0].Name)

	got, err := svc.Get(ctx, testUser, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupByCategory, got.GroupBy)

	require.NoError(t, svc.Delete(ctx, testUser, created.ID))
	_, err = svc.Get(ctx, testUser, created.ID)
	assert.ErrorIs(t, err, domain.ErrPresetNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, testUser, created.ID), domain.ErrPresetNotFound)
}

func TestPresetService_SaveOverwritesByID(t *testing.T) {
	repo := testutil.NewMockPresetRepository()
	svc := NewPresetService(repo)
	ctx := context.Background()

	first, err := svc.Save(ctx, testUser, &domain.Preset{Name: "Draft", GroupBy: domain.GroupByNone})
	require.NoError(t, err)

	_, err = svc.Save(ctx, testUser, &domain.Preset{ID: first.ID, Name: "Final", GroupBy: domain.GroupByType})
	require.NoError(t, err)

	list, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Final", list[0].Name)
	assert.Equal(t, domain.GroupByType, list[0].GroupBy)
}

func TestPresetService_SaveValidates(t *testing.T) {
	repo := testutil.NewMockPresetRepository()
	svc := NewPresetService(repo)

	_, err := svc.Save(context.Background(), testUser, &domain.Preset{Name: " "})
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.Save(context.Background(), testUser, &domain.Preset{Name: "x", SortBy: "random"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 0, repo.Saves)
}

func TestPresetService_StorageErrors(t *testing.T) {
	repo := testutil.NewMockPresetRepository()
	repo.LoadErr = errors.New("bucket unavailable")
	svc := NewPresetService(repo)

	_, err := svc.List(context.Background(), testUser)
	assert.Error(t, err)

	repo.LoadErr = nil
	repo.SaveErr = errors.New("write failed")
	_, err = svc.Save(context.Background(), testUser, &domain.Preset{Name: "x"})
	assert.EqualError(t, err, "write failed")
}

func TestPresetService_UsersAreIsolated(t *testing.T) {
	svc := NewPresetService(testutil.NewMockPresetRepository())
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", &domain.Preset{Name: "mine"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)
}
