package rotation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/rotation"
	"github.com/williamokano/odoo_backuper/pkg/storage"
	"github.com/williamokano/odoo_backuper/pkg/storage/mocks"
)

func TestSweepBackend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	db := config.DatabaseConfig{Name: "C1", DatabaseName: "db1", RetentionDays: 7}

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("offsite")
	backend.On("List", ctx, "db1/db1_*").Return([]storage.FileInfo{
		{Path: "db1/db1_20240101000000.zip", Size: 10},
		{Path: "db1/db1_20231229000000.zip", Size: 10},
		{Path: "db1/db1_20230101000000.zip", Size: 10},
		{Path: "db1/db1_manual.zip", Size: 10},
	}, nil).Once()
	backend.On("Delete", ctx, "db1/db1_20231229000000.zip").Return(nil).Once()
	backend.On("Delete", ctx, "db1/db1_20230101000000.zip").Return(errors.New("access denied")).Once()

	removed, failures, err := rotation.SweepBackend(ctx, backend, db, now, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"db1/db1_20231229000000.zip"}, removed)
	require.Len(t, failures, 1)
	assert.Equal(t, "db1/db1_20230101000000.zip", failures[0].Path)
	assert.Contains(t, failures[0].Error(), "access denied")
}

func TestSweepBackend_ListFailure(t *testing.T) {
	ctx := context.Background()
	db := config.DatabaseConfig{DatabaseName: "db1", RetentionDays: 7}

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("offsite")
	backend.On("List", ctx, "db1/db1_*").Return(nil, storage.ErrConnFailed).Once()

	_, _, err := rotation.SweepBackend(ctx, backend, db, time.Now(), zerolog.Nop())
	assert.ErrorIs(t, err, storage.ErrConnFailed)
}

func TestSweepBackend_ZeroRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	backend := mocks.NewMockBackend(t)
	backend.On("Name").Return("offsite")
	backend.On("List", ctx, "db1/db1_*").Return([]storage.FileInfo{
		{Path: "db1/db1_20240106000000.zip"},
		{Path: "db1/db1_20240101000000.zip"},
	}, nil).Once()
	backend.On("Delete", ctx, "db1/db1_20240101000000.zip").Return(nil).Once()

	removed, failures, err := rotation.SweepBackend(ctx, backend,
		config.DatabaseConfig{DatabaseName: "db1"}, now, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, []string{"db1/db1_20240101000000.zip"}, removed)
	assert.Empty(t, failures)
}
