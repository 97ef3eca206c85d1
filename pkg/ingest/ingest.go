// Package ingest implements the server-side acceptance of a decoded
// heartbeat batch: computing the service_ok verdict and persisting
// one row per heartbeat (spec.md §4.3).
package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/othernet-project/monitoring/pkg/codec"
	"github.com/othernet-project/monitoring/pkg/storage"
	"github.com/othernet-project/monitoring/pkg/telemetry"
)

// ServiceOK computes the per-datapoint verdict defined in spec.md
// §4.3. Unlocked points are reported OK because their signal state is
// unknown; the classifier later excludes them by its own
// signal_lock = true predicate.
func ServiceOK(h codec.Heartbeat) bool {
	if !h.SignalLock {
		return true
	}
	if h.Bitrate == 0 {
		return false
	}
	if !h.ServiceLock {
		return false
	}
	if h.CarouselCount == 0 || !anyTrue(h.CarouselStatus) {
		return false
	}
	return true
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// Pipeline accepts decoded batches from the HTTP endpoint (spec.md
// §6) and persists them through Store. Persistence failures are
// logged and that row is dropped; the rest of the batch still
// proceeds (spec.md §4.3, §7).
type Pipeline struct {
	store   storage.Store
	logger  *logrus.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// New builds a Pipeline. logger defaults to logrus.StandardLogger()
// if nil, matching the teacher's nil-logger-falls-back-to-default
// constructor idiom. metrics may be nil, in which case Accept skips
// recording rows_persisted_total (tests that don't care about metrics
// pass nil rather than standing up a registry).
func New(store storage.Store, logger *logrus.Logger, metrics *telemetry.Metrics) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{store: store, logger: logger, metrics: metrics, now: time.Now}
}

// Accept persists one row per heartbeat in batch, in order, with a
// monotonically non-decreasing server-assigned Reported timestamp
// (spec.md §5). ip and country are attached to every row in the
// batch. Each row's persistence failure is logged and skipped; it
// never aborts the rest of the batch.
func (p *Pipeline) Accept(ctx context.Context, batch codec.Batch, ip string, country string) {
	for _, h := range batch {
		row := storage.Row{
			IP:              ip,
			Location:        country,
			ClientID:        h.ClientID,
			SignalLock:      h.SignalLock,
			ServiceLock:     h.ServiceLock,
			SignalStrength:  h.SignalStrength,
			Bitrate:         h.Bitrate,
			SNR:             h.SNR,
			ServiceOK:       ServiceOK(h),
			TunerVendor:     h.TunerVendor,
			TunerModel:      h.TunerModel,
			TunerPreset:     h.TunerPreset,
			CarouselsCount:  h.CarouselCount,
			CarouselsStatus: h.CarouselStatus,
			Timestamp:       h.Timestamp,
			Reported:        p.now(),
		}
		if err := p.store.InsertRow(ctx, row); err != nil {
			p.logger.WithError(err).WithField("client_id", h.ClientID).
				Error("persisting heartbeat row failed")
			continue
		}
		if p.metrics != nil {
			p.metrics.RowsPersisted.Inc()
		}
	}
}
