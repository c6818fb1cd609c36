package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/odoo_backuper/pkg/storage"
	"github.com/williamokano/odoo_backuper/pkg/storage/mocks"
)

func newMockBackend(t *testing.T, name, typ string) *mocks.MockBackend {
	b := mocks.NewMockBackend(t)
	b.On("Name").Return(name)
	b.On("Type").Return(typ)
	return b
}

func TestReplicator_Replicate(t *testing.T) {
	const (
		src  = "/var/backups/odoo/acme/acme_20240102030405.zip"
		dest = "acme/acme_20240102030405.zip"
	)

	t.Run("single_backend_success", func(t *testing.T) {
		b := newMockBackend(t, "offsite", "s3")
		b.On("Write", mock.Anything, src, dest).Return(nil).Once()

		results := storage.NewReplicator([]storage.Backend{b}, nil, zerolog.Nop()).Replicate(context.Background(), src, dest)

		require.Len(t, results, 1)
		assert.True(t, results[0].Success)
		assert.Equal(t, "offsite", results[0].BackendName)
		assert.Equal(t, "s3", results[0].BackendType)
		assert.NoError(t, results[0].Error)
		assert.Empty(t, storage.Failed(results))
	})

	t.Run("failure_does_not_stop_later_backends", func(t *testing.T) {
		var order []string
		record := func(name string) func(mock.Arguments) {
			return func(mock.Arguments) { order = append(order, name) }
		}

		b1 := newMockBackend(t, "nas", "local")
		b1.On("Write", mock.Anything, src, dest).Run(record("nas")).Return(nil).Once()

		b2 := newMockBackend(t, "offsite", "s3")
		b2.On("Write", mock.Anything, src, dest).Run(record("offsite")).Return(storage.ErrConnFailed).Once()

		b3 := newMockBackend(t, "remote", "ssh")
		b3.On("Write", mock.Anything, src, dest).Run(record("remote")).Return(nil).Once()

		results := storage.NewReplicator([]storage.Backend{b1, b2, b3}, nil, zerolog.Nop()).Replicate(context.Background(), src, dest)

		require.Len(t, results, 3)
		assert.Equal(t, []string{"nas", "offsite", "remote"}, order)
		assert.Equal(t, "nas", results[0].BackendName)
		assert.Equal(t, "offsite", results[1].BackendName)
		assert.Equal(t, "remote", results[2].BackendName)

		failed := storage.Failed(results)
		require.Len(t, failed, 1)
		assert.Equal(t, "offsite", failed[0].BackendName)
		assert.ErrorIs(t, failed[0].Error, storage.ErrConnFailed)
	})

	t.Run("duration_from_clock", func(t *testing.T) {
		clk := testclock.NewClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

		b := newMockBackend(t, "offsite", "s3")
		b.On("Write", mock.Anything, src, dest).
			Run(func(mock.Arguments) { clk.Advance(90 * time.Second) }).
			Return(nil).Once()

		results := storage.NewReplicator([]storage.Backend{b}, clk, zerolog.Nop()).Replicate(context.Background(), src, dest)

		require.Len(t, results, 1)
		assert.Equal(t, 90*time.Second, results[0].Duration)
	})

	t.Run("no_backends", func(t *testing.T) {
		results := storage.NewReplicator(nil, nil, zerolog.Nop()).Replicate(context.Background(), src, dest)
		assert.Empty(t, results)
	})
}

func TestReplicator_Close(t *testing.T) {
	b1 := mocks.NewMockBackend(t)
	b1.On("Close").Return(nil).Once()
	b2 := mocks.NewMockBackend(t)
	b2.On("Close").Return(assert.AnError).Once()

	r := storage.NewReplicator([]storage.Backend{b1, b2}, nil, zerolog.Nop())
	r.Close()
	assert.Len(t, r.Backends(), 2)
}
