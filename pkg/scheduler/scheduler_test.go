package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopRunsPeriodically(t *testing.T) {
	var count int32
	loop := New(10*time.Millisecond, func(ctx context.Context, now time.Time) {
		atomic.AddInt32(&count, 1)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(2))
}

func TestLoopSkipsOverlappingTick(t *testing.T) {
	var running int32
	var overlapDetected int32
	release := make(chan struct{})

	loop := New(5*time.Millisecond, func(ctx context.Context, now time.Time) {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			atomic.StoreInt32(&overlapDetected, 1)
			return
		}
		<-release
		atomic.StoreInt32(&running, 0)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	close(release)
	<-done

	assert.Zero(t, atomic.LoadInt32(&overlapDetected), "scheduler must never invoke run concurrently with itself")
}

func TestLoopRecoversFromPanic(t *testing.T) {
	var afterPanicRan int32
	loop := New(10*time.Millisecond, func(ctx context.Context, now time.Time) {
		if atomic.LoadInt32(&afterPanicRan) == 0 {
			panic("boom")
		}
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	assert.NotPanics(t, func() {
		loop.Run(ctx)
	})
	atomic.StoreInt32(&afterPanicRan, 1)
}
