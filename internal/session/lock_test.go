package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/session"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := session.NewMemoryLocker()
	ctx := context.Background()
	id := uuid.New()

	unlock, err := locker.TryLock(ctx, id)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, id)
	assert.ErrorIs(t, err, domain.ErrConversationBusy)

	// Other sessions are unaffected.
	unlockOther, err := locker.TryLock(ctx, uuid.New())
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock() // idempotent

	unlock, err = locker.TryLock(ctx, id)
	require.NoError(t, err)
	unlock()
}

func TestMemoryLocker_Concurrent(t *testing.T) {
	locker := session.NewMemoryLocker()
	id := uuid.New()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	release := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			unlock, err := locker.TryLock(context.Background(), id)
			if err != nil {
				return
			}
			acquired.Add(1)
			<-release
			unlock()
		}()
	}
	close(start)
	close(release)
	wg.Wait()

	assert.GreaterOrEqual(t, acquired.Load(), int32(1))
}
