package mainloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoopRunsPostedWorkInOrder(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	var got []int
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Post(func() {
			got = append(got, i)
			wg.Done()
		}))
	}
	wg.Wait()

	var snapshot []int
	require.NoError(t, l.Call(context.Background(), func() { snapshot = append(snapshot, got...) }))
	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestLoopPostFromInsideWorkDoesNotDeadlock(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	ran := make(chan struct{})
	require.True(t, l.Post(func() {
		l.Post(func() { close(ran) })
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoopRejectsWorkAfterStop(t *testing.T) {
	t.Parallel()

	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = l.Run(ctx)
	}()

	require.NoError(t, l.Call(context.Background(), func() {}))
	cancel()
	<-stopped

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
	assert.Error(t, l.Run(context.Background()))
}

func TestLoopCallHonoursContext(t *testing.T) {
	t.Parallel()

	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, l.Post(nil))
}

func TestLoopCallReturnsWhenRunExitsWithWorkQueued(t *testing.T) {
	t.Parallel()

	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, l.Post(func() {
		close(started)
		<-release
		cancel()
	}))
	<-started

	ran := false
	errs := make(chan error, 1)
	go func() { errs <- l.Call(context.Background(), func() { ran = true }) }()

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.queue) == 1
	}, 2*time.Second, time.Millisecond)
	close(release)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrStopped)
		assert.False(t, ran)
	case <-time.After(2 * time.Second):
		t.Fatal("Call blocked after the loop stopped")
	}
	<-l.Done()
}
