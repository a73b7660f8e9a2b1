package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"dealflow/server/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emails(ids ...string) []*models.Email {
	out := make([]*models.Email, len(ids))
	for i, id := range ids {
		out[i] = &models.Email{ID: id}
	}
	return out
}

func TestNewEmailQueue(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestEmailQueue_Push(t *testing.T) {
	q := NewEmailQueue(2, logrus.New())

	require.NoError(t, q.Push(emails("email-1")))
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Pending("email-1"))

	require.NoError(t, q.Push(emails("email-2")))
	assert.Equal(t, ErrQueueFull, q.Push(emails("email-3")))
	assert.False(t, q.Pending("email-3"), "rejected batch must not stay pending")

	require.NoError(t, q.Close())
	assert.Equal(t, ErrQueueClosed, q.Push(emails("email-4")))
}

func TestEmailQueue_PushDropsPendingEmails(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())

	require.NoError(t, q.Push(emails("email-1", "email-2")))
	require.NoError(t, q.Push(emails("email-2", "email-3")))
	require.NoError(t, q.Push(emails("email-1")))
	assert.Equal(t, 2, q.Len())

	first := <-q.items
	second := <-q.items
	assert.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, "email-3", second[0].ID)
}

func TestEmailQueue_Subscribe(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())

	var processed []*models.Email
	var mu sync.Mutex
	q.Subscribe(func(batch []*models.Email) error {
		mu.Lock()
		processed = append(processed, batch...)
		mu.Unlock()
		return nil
	})

	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(emails("email-1", "email-2")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "email-1", processed[0].ID)
	assert.Equal(t, "email-2", processed[1].ID)
	mu.Unlock()

	// Handled emails can be queued again
	assert.Eventually(t, func() bool { return !q.Pending("email-1") }, time.Second, 10*time.Millisecond)
	require.NoError(t, q.Push(emails("email-1")))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestEmailQueue_HandlerErrorReleasesBatch(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())
	done := make(chan struct{}, 1)
	q.Subscribe(func(batch []*models.Email) error {
		done <- struct{}{}
		return errors.New("classifier unavailable")
	})
	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(emails("email-1")))
	<-done
	assert.Eventually(t, func() bool { return !q.Pending("email-1") }, time.Second, 10*time.Millisecond)
}

func TestEmailQueue_CloseDrains(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())

	var mu sync.Mutex
	handled := 0
	q.Subscribe(func(batch []*models.Email) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		handled += len(batch)
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(emails(string(rune('a'+i)))))
	}
	q.Start()
	require.NoError(t, q.Close())

	mu.Lock()
	assert.Equal(t, 5, handled)
	mu.Unlock()
	assert.True(t, q.IsClosed())

	// Second close is a no-op
	assert.NoError(t, q.Close())
}

func TestEmailQueue_CloseBeforeStart(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())
	require.NoError(t, q.Push(emails("email-1")))
	assert.NoError(t, q.Close())
	assert.True(t, q.IsClosed())
}

func TestEmailQueue_AllHandlersReceiveBatch(t *testing.T) {
	q := NewEmailQueue(10, logrus.New())

	var wg sync.WaitGroup
	var mu sync.Mutex
	processedBatches := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		q.Subscribe(func(batch []*models.Email) error {
			mu.Lock()
			processedBatches++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}

	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(emails("email-1")))
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, processedBatches)
	mu.Unlock()
}
