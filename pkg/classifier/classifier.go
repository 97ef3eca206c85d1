// Package classifier implements the client health cascade described
// in spec.md §4.4: a fixed chain of window/threshold checks walked in
// order until one confirms, starting from "ok" and falling through to
// "unknown" if nothing else does. It is total and deterministic: the
// same datapoints and the same clock always produce the same result.
package classifier

import "time"

// Health is one of the cascade's terminal health tags.
type Health string

const (
	HealthOK             Health = "ok"
	HealthNoCarousels    Health = "no_carousels"
	HealthBadBitrate     Health = "bad_bitrate"
	HealthNoServiceLock  Health = "no_service_lock"
	HealthNoSignalLock   Health = "no_signal_lock"
	HealthUnknown        Health = "unknown"
)

// Datapoint is the subset of a persisted stats row the classifier
// needs. Rows are expected to already satisfy the server-side
// selection predicate (signal_lock = true) per spec.md §4.4, but the
// classifier itself makes no such assumption — see spec.md §9's open
// question on no_signal_lock reachability.
type Datapoint struct {
	Reported       time.Time
	Bitrate        int64
	ServiceLock    bool
	SignalLock     bool
	CarouselCount  int
	CarouselStatus []bool
	ServiceOK      bool
}

// Report is the per-client classifier output (spec.md §4.4).
type Report struct {
	Health     Health
	ErrorRate  float64
	AvgBitrate float64
	Status     bool
}

const tenMinutes = 10 * time.Minute

// carouselsEmpty reports whether a datapoint's carousel_status
// indicates no active carousel (spec.md §4.3, §4.4): carousel_count
// is zero, or every entry in carousel_status is false.
func carouselsEmpty(d Datapoint) bool {
	if d.CarouselCount == 0 {
		return true
	}
	for _, up := range d.CarouselStatus {
		if up {
			return false
		}
	}
	return true
}

func windowSince(points []Datapoint, now time.Time, window time.Duration) []Datapoint {
	if window <= 0 {
		return points
	}
	cutoff := now.Add(-window)
	out := make([]Datapoint, 0, len(points))
	for _, d := range points {
		if !d.Reported.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out
}

func failureRate(points []Datapoint, isFailure func(Datapoint) bool) (rate float64, n int) {
	n = len(points)
	if n == 0 {
		return 0, 0
	}
	failures := 0
	for _, d := range points {
		if isFailure(d) {
			failures++
		}
	}
	return float64(failures) / float64(n), n
}

func avgBitrate(points []Datapoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum int64
	for _, d := range points {
		sum += d.Bitrate
	}
	return float64(sum) / float64(len(points))
}

// ClientReport walks the cascade in spec.md §4.4's table over points
// (a single client's datapoints within the reporting window, any
// order) evaluated as of now. It never fails; an unconfirmed cascade
// falls through to HealthUnknown.
func ClientReport(points []Datapoint, now time.Time) Report {
	full := points
	last10 := windowSince(points, now, tenMinutes)

	// ok: failure_rate <= 0.20 over the full window; failure =
	// carousel_count == 0 or all carousel_status false.
	if rate, n := failureRate(full, carouselsEmpty); n > 0 && rate <= 0.20 {
		return Report{Health: HealthOK, ErrorRate: rate, AvgBitrate: avgBitrate(full), Status: true}
	}

	// no_carousels: failure_rate > 0.80 over the last 10 minutes;
	// failure = bitrate > 0 AND carousels empty.
	noCarouselsFailure := func(d Datapoint) bool {
		return d.Bitrate > 0 && carouselsEmpty(d)
	}
	if rate, n := failureRate(last10, noCarouselsFailure); n > 0 && rate > 0.80 {
		return Report{Health: HealthNoCarousels, ErrorRate: rate, AvgBitrate: avgBitrate(full), Status: false}
	}

	// bad_bitrate: failure_rate > 0.80 over the full window; failure
	// = bitrate == 0.
	badBitrateFailure := func(d Datapoint) bool { return d.Bitrate == 0 }
	if rate, n := failureRate(full, badBitrateFailure); n > 0 && rate > 0.80 {
		return Report{Health: HealthBadBitrate, ErrorRate: rate, AvgBitrate: avgBitrate(full), Status: false}
	}

	// no_service_lock: failure_rate >= 0.50 over the last 10 minutes;
	// failure = service_lock == false.
	noServiceLockFailure := func(d Datapoint) bool { return !d.ServiceLock }
	if rate, n := failureRate(last10, noServiceLockFailure); n > 0 && rate >= 0.50 {
		return Report{Health: HealthNoServiceLock, ErrorRate: rate, AvgBitrate: avgBitrate(full), Status: false}
	}

	// no_signal_lock: failure_rate >= 0.20 over the last 10 minutes;
	// failure = signal_lock == false. Unreachable when the caller
	// only supplies signal_lock = true rows, see spec.md §9.
	noSignalLockFailure := func(d Datapoint) bool { return !d.SignalLock }
	if rate, n := failureRate(last10, noSignalLockFailure); n > 0 && rate >= 0.20 {
		return Report{Health: HealthNoSignalLock, ErrorRate: rate, AvgBitrate: avgBitrate(full), Status: false}
	}

	// unknown: terminal. error_rate is the whole-window fraction of
	// service_ok == false; status is true iff that rate < 0.5.
	rate, _ := failureRate(full, func(d Datapoint) bool { return !d.ServiceOK })
	return Report{
		Health:     HealthUnknown,
		ErrorRate:  rate,
		AvgBitrate: avgBitrate(full),
		Status:     rate < 0.5,
	}
}
