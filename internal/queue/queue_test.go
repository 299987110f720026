package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalmap/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func batchOf(ids ...string) []*models.Property {
	out := make([]*models.Property, len(ids))
	for i, id := range ids {
		out[i] = &models.Property{ID: id}
	}
	return out
}

func TestNewPropertyQueue(t *testing.T) {
	q := NewPropertyQueue(10, quietLogger())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())

	assert.Equal(t, 1, NewPropertyQueue(0, nil).maxSize)
}

func TestPropertyQueue_TryPush(t *testing.T) {
	q := NewPropertyQueue(2, quietLogger())

	require.NoError(t, q.TryPush(batchOf("a")))
	require.NoError(t, q.TryPush(batchOf("b")))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, ErrQueueFull, q.TryPush(batchOf("c")))

	require.NoError(t, q.Close())
	assert.True(t, q.IsClosed())
	assert.Equal(t, ErrQueueClosed, q.TryPush(batchOf("d")))
}

func TestPropertyQueue_PushHonoursContext(t *testing.T) {
	q := NewPropertyQueue(1, quietLogger())
	require.NoError(t, q.Push(context.Background(), batchOf("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Push(ctx, batchOf("b")), context.DeadlineExceeded)
}

func TestPropertyQueue_DispatchesInOrderAndDrains(t *testing.T) {
	q := NewPropertyQueue(4, quietLogger())

	var mu sync.Mutex
	var seen []string
	q.Subscribe(func(batch []*models.Property) error {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range batch {
			seen = append(seen, p.ID)
		}
		return nil
	})
	q.Start()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Push(ctx, batchOf(fmt.Sprintf("p%d", i))))
	}
	require.NoError(t, q.Close())
	require.NoError(t, q.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 10)
	assert.Equal(t, "p0", seen[0])
	assert.Equal(t, "p9", seen[9])
}

func TestPropertyQueue_HandlerErrorsDoNotStopDispatch(t *testing.T) {
	q := NewPropertyQueue(4, quietLogger())

	calls := 0
	q.Subscribe(func([]*models.Property) error {
		calls++
		return errors.New("boom")
	})
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Push(ctx, batchOf("a")))
	require.NoError(t, q.Push(ctx, batchOf("b")))
	require.NoError(t, q.Close())
	require.NoError(t, q.Wait(ctx))
	assert.Equal(t, 2, calls)
}

func TestPropertyQueue_CloseUnblocksPush(t *testing.T) {
	q := NewPropertyQueue(1, quietLogger())
	require.NoError(t, q.TryPush(batchOf("a")))

	errCh := make(chan error, 1)
	go func() { errCh <- q.Push(context.Background(), batchOf("b")) }()

	time.Sleep(10 * time.Millisecond)
	go q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Push did not return after Close")
	}
}

func TestPropertyQueue_WaitHonoursContext(t *testing.T) {
	q := NewPropertyQueue(1, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Wait(ctx), context.DeadlineExceeded)
}
