package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateBoundsConcurrency(t *testing.T) {
	const capacity = 4
	const callers = capacity + 12

	gate := NewGate(capacity)

	var inFlight, peak, completed int64
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			err := gate.Do(context.Background(), func() error {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				atomic.AddInt64(&completed, 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(capacity))
	assert.Equal(t, int64(callers), atomic.LoadInt64(&completed), "every waiter must eventually run")
}

func TestGatePropagatesError(t *testing.T) {
	gate := NewGate(1)
	wantErr := assert.AnError

	err := gate.Do(context.Background(), func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestGateReleasesSlotAfterError(t *testing.T) {
	gate := NewGate(1)

	_ = gate.Do(context.Background(), func() error { return assert.AnError })

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := gate.Do(context.Background(), func() error { return nil })
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after a failed call")
	}
}

func TestGateHonorsContextWhileWaiting(t *testing.T) {
	gate := NewGate(1)

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = gate.Do(context.Background(), func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- gate.Do(ctx, func() error { return nil })
	}()

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}
	close(hold)
}
