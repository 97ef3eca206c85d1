package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(now time.Time, secondsAgo int) time.Time {
	return now.Add(-time.Duration(secondsAgo) * time.Second)
}

func TestClientReportOK(t *testing.T) {
	now := time.Now()
	points := make([]Datapoint, 10)
	for i := range points {
		points[i] = Datapoint{
			Reported:       at(now, i*60),
			Bitrate:        30_000_000,
			ServiceLock:    true,
			SignalLock:     true,
			CarouselCount:  4,
			CarouselStatus: []bool{true, true, true, true},
			ServiceOK:      true,
		}
	}
	r := ClientReport(points, now)
	assert.Equal(t, HealthOK, r.Health)
	assert.True(t, r.Status)
	assert.Zero(t, r.ErrorRate)
}

func TestClientReportNoCarousels(t *testing.T) {
	now := time.Now()
	points := make([]Datapoint, 10)
	for i := range points {
		empty := i < 9 // 90% within last 10 minutes have no active carousel
		points[i] = Datapoint{
			Reported:      at(now, i*30),
			Bitrate:       30_000_000,
			ServiceLock:   true,
			SignalLock:    true,
			CarouselCount: 4,
			ServiceOK:     !empty,
		}
		if !empty {
			points[i].CarouselStatus = []bool{true, true, true, true}
		} else {
			points[i].CarouselStatus = []bool{false, false, false, false}
		}
	}
	r := ClientReport(points, now)
	assert.Equal(t, HealthNoCarousels, r.Health)
	assert.False(t, r.Status)
}

func TestClientReportBadBitrate(t *testing.T) {
	now := time.Now()
	points := make([]Datapoint, 10)
	for i := range points {
		points[i] = Datapoint{
			Reported:      at(now, i*30),
			Bitrate:       0, // also carouselCount 0: keeps no_carousels' bitrate>0 predicate false
			ServiceLock:   true,
			SignalLock:    true,
			CarouselCount: 0,
		}
	}
	r := ClientReport(points, now)
	assert.Equal(t, HealthBadBitrate, r.Health)
	assert.False(t, r.Status)
}

func TestClientReportNoServiceLock(t *testing.T) {
	now := time.Now()
	points := make([]Datapoint, 10)
	for i := range points {
		// Half the window has no active carousel: enough to fail "ok"
		// (>20% full-window carousel-empty rate) without being enough
		// to confirm "no_carousels" (which needs >80%).
		status := []bool{true, true, true, true}
		if i < 5 {
			status = []bool{false, false, false, false}
		}
		points[i] = Datapoint{
			Reported:       at(now, i*30),
			Bitrate:        30_000_000,
			ServiceLock:    false,
			SignalLock:     true,
			CarouselCount:  4,
			CarouselStatus: status,
		}
	}
	r := ClientReport(points, now)
	assert.Equal(t, HealthNoServiceLock, r.Health)
	assert.False(t, r.Status)
}

func TestClientReportNoSignalLock(t *testing.T) {
	now := time.Now()
	points := make([]Datapoint, 10)
	for i := range points {
		status := []bool{true, true, true, true}
		if i < 5 {
			status = []bool{false, false, false, false}
		}
		points[i] = Datapoint{
			Reported:       at(now, i*30),
			Bitrate:        30_000_000,
			ServiceLock:    true,
			SignalLock:     false,
			CarouselCount:  4,
			CarouselStatus: status,
		}
	}
	r := ClientReport(points, now)
	assert.Equal(t, HealthNoSignalLock, r.Health)
	assert.False(t, r.Status)
}

func TestClientReportUnknownFallthrough(t *testing.T) {
	now := time.Now()
	// No datapoints at all within the windows any state inspects: the
	// cascade has nothing to confirm against and falls all the way
	// through to unknown.
	r := ClientReport(nil, now)
	assert.Equal(t, HealthUnknown, r.Health)
	assert.Zero(t, r.ErrorRate)
	assert.True(t, r.Status)
}

func TestClientReportIsDeterministic(t *testing.T) {
	now := time.Now()
	points := []Datapoint{
		{Reported: at(now, 0), Bitrate: 30_000_000, ServiceLock: true, SignalLock: true, CarouselCount: 4, CarouselStatus: []bool{true, false, true, false}, ServiceOK: true},
		{Reported: at(now, 60), Bitrate: 0, ServiceLock: true, SignalLock: true, CarouselCount: 4, CarouselStatus: []bool{true, false, true, false}, ServiceOK: false},
	}
	first := ClientReport(points, now)
	second := ClientReport(points, now)
	assert.Equal(t, first, second)
}
