// Package scheduler drives the periodic classifier+aggregator pass on
// a single goroutine, guaranteeing non-overlapping invocations (spec.md
// §5) via a done-channel guard rather than a mutex, mirroring the
// teacher's non-blocking processing-loop idiom (its BusManager/Network
// read loops never block on a slow handler).
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop invokes run every interval, skipping a tick entirely rather
// than queuing it if the previous run is still in flight (spec.md §5:
// "the scheduler guarantees non-overlapping classifier invocations").
// It blocks until ctx is cancelled.
type Loop struct {
	interval time.Duration
	run      func(ctx context.Context, now time.Time)
	logger   *logrus.Logger
}

// New builds a Loop. logger defaults to logrus.StandardLogger() if
// nil.
func New(interval time.Duration, run func(ctx context.Context, now time.Time), logger *logrus.Logger) *Loop {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Loop{interval: interval, run: run, logger: logger}
}

// Run blocks, ticking every l.interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	busy := make(chan struct{}, 1)
	busy <- struct{}{} // one free slot; guarantees non-overlap

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			select {
			case <-busy:
				go func() {
					defer func() { busy <- struct{}{} }()
					l.runOnce(ctx, now)
				}()
			default:
				l.logger.Warn("skipping classifier pass tick: previous pass still running")
			}
		}
	}
}

func (l *Loop) runOnce(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithField("panic", r).Error("classifier pass panicked")
		}
	}()
	l.run(ctx, now)
}
