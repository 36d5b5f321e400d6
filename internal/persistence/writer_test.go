package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/pkg/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSaver is a mock implementation of Saver
type MockSaver struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockSaver) Save(ctx context.Context, key string, collection any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(key, collection)
	return args.Error(0)
}

func testWriterConfig() WriterConfig {
	return WriterConfig{
		RetryAttempts: 2,
		RetryBackoff:  time.Millisecond,
		ErrorBuffer:   8,
	}
}

func TestWriter_FlushWritesThroughAdapter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	adapter := NewAdapter(store, DefaultKeys)
	writer := NewWriter(adapter, testWriterConfig())

	vehicles := models.DefaultVehicles()
	writer.Persist(DefaultKeys.Vehicles, vehicles)
	assert.Equal(t, 1, writer.Stats().Pending)

	require.NoError(t, writer.Flush(ctx))

	loaded, ok := adapter.LoadVehicles(ctx)
	require.True(t, ok)
	assert.Equal(t, vehicles, loaded)

	stats := writer.Stats()
	assert.Equal(t, int64(1), stats.Writes)
	assert.Zero(t, stats.Pending)
	assert.False(t, stats.LastWriteAt.IsZero())
}

func TestWriter_CoalescesPerKey(t *testing.T) {
	saver := &MockSaver{}
	writer := NewWriter(saver, testWriterConfig())

	first := []models.Vehicle{{ID: "1"}}
	second := []models.Vehicle{{ID: "2"}}
	records := []models.MaintenanceRecord{}

	writer.Persist(DefaultKeys.Vehicles, first)
	writer.Persist(DefaultKeys.Vehicles, second)
	writer.Persist(DefaultKeys.Maintenance, records)

	saver.On("Save", DefaultKeys.Vehicles, second).Return(nil).Once()
	saver.On("Save", DefaultKeys.Maintenance, records).Return(nil).Once()

	require.NoError(t, writer.Flush(context.Background()))

	saver.AssertExpectations(t)
	saver.AssertNotCalled(t, "Save", DefaultKeys.Vehicles, first)
	assert.Equal(t, int64(1), writer.Stats().Coalesced)
}

func TestWriter_RetriesThenSucceeds(t *testing.T) {
	saver := &MockSaver{}
	writer := NewWriter(saver, testWriterConfig())

	saver.On("Save", "k", mock.Anything).Return(errors.New("timeout")).Twice()
	saver.On("Save", "k", mock.Anything).Return(nil).Once()

	writer.Persist("k", []models.Vehicle{})
	require.NoError(t, writer.Flush(context.Background()))

	saver.AssertNumberOfCalls(t, "Save", 3)
	assert.Zero(t, writer.Stats().FailedWrites)
	assert.Empty(t, writer.Errors())
}

func TestWriter_ReportsFailureWithoutBlocking(t *testing.T) {
	saver := &MockSaver{}
	writer := NewWriter(saver, testWriterConfig())
	boom := errors.New("disk full")

	saver.On("Save", "k", mock.Anything).Return(boom)

	writer.Persist("k", []models.Vehicle{})
	err := writer.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	select {
	case reported := <-writer.Errors():
		var writeErr *WriteError
		require.True(t, errors.As(reported, &writeErr))
		assert.Equal(t, "k", writeErr.Key)
		assert.Equal(t, 3, writeErr.Attempts)
		assert.ErrorIs(t, reported, boom)
	default:
		t.Fatal("expected a reported write error")
	}

	stats := writer.Stats()
	assert.Equal(t, int64(1), stats.FailedWrites)
	assert.Contains(t, stats.LastError, "disk full")
}

func TestWriter_BackgroundLoop(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	writer := NewWriter(NewAdapter(store, DefaultKeys), testWriterConfig())
	writer.Start()
	defer writer.Stop(ctx)

	writer.Persist(DefaultKeys.Maintenance, []models.MaintenanceRecord{})

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, DefaultKeys.Maintenance)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestWriter_IntervalFlush(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	config := testWriterConfig()
	config.FlushInterval = 10 * time.Millisecond
	writer := NewWriter(NewAdapter(store, DefaultKeys), config)
	writer.Start()
	defer writer.Stop(ctx)

	writer.Persist(DefaultKeys.Vehicles, models.DefaultVehicles())

	assert.Eventually(t, func() bool {
		return store.Len() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWriter_StopFlushesAndRejectsLateWrites(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	config := testWriterConfig()
	config.FlushInterval = time.Hour
	writer := NewWriter(NewAdapter(store, DefaultKeys), config)
	writer.Start()

	writer.Persist(DefaultKeys.Vehicles, models.DefaultVehicles())
	require.NoError(t, writer.Stop(ctx))
	assert.Equal(t, 1, store.Len())

	writer.Persist(DefaultKeys.Maintenance, []models.MaintenanceRecord{})
	select {
	case err := <-writer.Errors():
		assert.ErrorIs(t, err, ErrWriterStopped)
	default:
		t.Fatal("expected ErrWriterStopped")
	}
	assert.Equal(t, 1, store.Len())
}
