// Package report implements the aggregator and alerting pass (spec.md
// §4.5): grouping classifier output by satellite preset, detecting
// per-preset status transitions, and composing the alert messages an
// external SMTP collaborator delivers.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/strftime"

	"github.com/othernet-project/monitoring/pkg/classifier"
	"github.com/othernet-project/monitoring/pkg/presets"
	"github.com/othernet-project/monitoring/pkg/storage"
)

// Status is a satellite's aggregate health symbol (spec.md §3).
type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// ClientError is one client's confirmed health failure, rendered in
// alert messages as a single line (spec.md §4.5).
type ClientError struct {
	Timestamp time.Time
	ClientID  uuid.UUID
	Kind      string
	Parameter string
	Value     float64
	Health    classifier.Health
}

const timestampFormat = "%b %d %H:%M UTC"

// String renders one alert line: "[<MMM DD HH:MM UTC>] Client <uuid>
// reported <kind> with aggregate value of <value> <parameter> and
// health <health>" (spec.md §4.5).
func (e ClientError) String() string {
	ts, err := strftime.Format(timestampFormat, e.Timestamp.UTC())
	if err != nil {
		ts = e.Timestamp.UTC().Format("Jan 02 15:04 UTC")
	}
	return fmt.Sprintf("[%s] Client %s reported %s with aggregate value of %v %s and health %s",
		ts, e.ClientID, e.Kind, e.Value, e.Parameter, e.Health)
}

// HighErrorRate builds the one ClientError kind this core emits
// (spec.md §4.5).
func HighErrorRate(now time.Time, clientID uuid.UUID, health classifier.Health, errorRate float64) ClientError {
	return ClientError{
		Timestamp: now,
		ClientID:  clientID,
		Kind:      "high error rate",
		Parameter: "errors rate",
		Value:     errorRate,
		Health:    health,
	}
}

// PresetReport is one satellite preset's aggregate over the reporting
// window (spec.md §4.5).
type PresetReport struct {
	Preset    int
	Errors    []ClientError
	ErrorRate float64
	Bitrate   float64
	NClients  int
}

// StatusEntry is the dashboard-facing snapshot published as
// last_report (spec.md §4.5, §6).
type StatusEntry struct {
	Status    Status  `json:"status"`
	Clients   int     `json:"clients"`
	ErrorRate float64 `json:"error_rate"`
	Bitrate   float64 `json:"bitrate"`
}

// StatusMap is sat_name -> StatusEntry.
type StatusMap map[string]StatusEntry

// Alert is one per-preset state-transition notification (spec.md
// §4.5).
type Alert struct {
	Preset  int
	SatName string
	Status  Status
	Errors  []ClientError
}

func statusFor(errorRate float64) Status {
	switch {
	case errorRate > 0.10:
		return StatusCritical
	case errorRate > 0.05:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// Aggregator holds the only cross-pass state in the core: the
// per-preset last-known status (spec.md §3, §5). It is not safe for
// concurrent Pass calls; the scheduler guarantees non-overlapping
// invocations instead of this type taking a lock (spec.md §5).
type Aggregator struct {
	lastState map[int]Status
}

// NewAggregator returns an Aggregator with every known preset
// defaulted to NORMAL (spec.md §3).
func NewAggregator() *Aggregator {
	a := &Aggregator{lastState: make(map[int]Status)}
	for _, id := range presets.IDs() {
		a.lastState[id] = StatusNormal
	}
	return a
}

// Pass groups rows by (tuner_preset, client_id), classifies each
// client, aggregates per preset, detects status transitions against
// the stored last_state, and returns the presets whose status
// changed plus the full dashboard snapshot (spec.md §4.5). now drives
// both the classifier's window math and the ClientError timestamps;
// pass a fixed value for deterministic tests.
func (a *Aggregator) Pass(rows []storage.Row, now time.Time) ([]Alert, StatusMap) {
	byPreset := groupByPreset(rows)

	presetReports := make(map[int]PresetReport, len(byPreset))
	displayStatus := make(map[int]Status, len(byPreset))

	for preset, presetRows := range byPreset {
		byClient := groupByClient(presetRows)

		var errors []ClientError
		var totalBitrate float64
		positiveBitrateClients := 0

		for clientID, clientRows := range byClient {
			points := toDatapoints(clientRows)
			cr := classifier.ClientReport(points, now)
			if !cr.Status {
				errors = append(errors, HighErrorRate(now, clientID, cr.Health, cr.ErrorRate))
			}
			if cr.AvgBitrate > 0 {
				totalBitrate += cr.AvgBitrate
				positiveBitrateClients++
			}
		}

		nclients := len(byClient)
		errorRate := 0.0
		if nclients > 0 {
			errorRate = float64(len(errors)) / float64(nclients)
		}
		bitrate := 0.0
		if positiveBitrateClients > 0 {
			bitrate = totalBitrate / float64(positiveBitrateClients)
		}

		presetReports[preset] = PresetReport{
			Preset:    preset,
			Errors:    errors,
			ErrorRate: errorRate,
			Bitrate:   bitrate,
			NClients:  nclients,
		}
		displayStatus[preset] = statusFor(errorRate)
	}

	// Transition detection and lastState bookkeeping are bounded to the
	// known preset table (spec.md §4.5's default-NORMAL set), mirroring
	// the original's get_preset_ids() bound. A row with an unrecognized
	// TunerPreset (e.g. 0/Unknown) still contributes to the dashboard
	// snapshot below but never drives an alert or seeds lastState, so it
	// can't be read as a transition from the zero value on the first pass.
	nextState := make(map[int]Status, len(presets.IDs()))
	var alerts []Alert
	for _, preset := range presets.IDs() {
		status, ok := displayStatus[preset]
		if !ok {
			status = StatusNormal
		}
		nextState[preset] = status
		if a.lastState[preset] == status {
			continue
		}
		pr := presetReports[preset]
		alerts = append(alerts, Alert{
			Preset:  preset,
			SatName: presets.Name(preset),
			Status:  status,
			Errors:  pr.Errors,
		})
	}
	a.lastState = nextState

	dashboard := make(StatusMap, len(presetReports))
	for preset, pr := range presetReports {
		dashboard[presets.Name(preset)] = StatusEntry{
			Status:    displayStatus[preset],
			Clients:   pr.NClients,
			ErrorRate: pr.ErrorRate,
			Bitrate:   pr.Bitrate,
		}
	}
	return alerts, dashboard
}

func groupByPreset(rows []storage.Row) map[int][]storage.Row {
	out := make(map[int][]storage.Row)
	for _, r := range rows {
		out[r.TunerPreset] = append(out[r.TunerPreset], r)
	}
	return out
}

func groupByClient(rows []storage.Row) map[uuid.UUID][]storage.Row {
	out := make(map[uuid.UUID][]storage.Row)
	for _, r := range rows {
		out[r.ClientID] = append(out[r.ClientID], r)
	}
	return out
}

func toDatapoints(rows []storage.Row) []classifier.Datapoint {
	out := make([]classifier.Datapoint, len(rows))
	for i, r := range rows {
		out[i] = classifier.Datapoint{
			Reported:       r.Reported,
			Bitrate:        r.Bitrate,
			ServiceLock:    r.ServiceLock,
			SignalLock:     r.SignalLock,
			CarouselCount:  r.CarouselsCount,
			CarouselStatus: r.CarouselsStatus,
			ServiceOK:      r.ServiceOK,
		}
	}
	return out
}

// ComposeMessage renders the plain-text alert body for alert (spec.md
// §4.5): a "SATELLITE STATUS: <status>" header, then a CRITICAL
// ALERTS or WARNINGS block listing its errors, or a plain recovery
// line when it has transitioned back to NORMAL with no errors.
func ComposeMessage(alert Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SATELLITE STATUS: %s\n\n", alert.Status)

	switch {
	case alert.Status == StatusCritical:
		b.WriteString(errorBlock("CRITICAL ALERTS", alert.Errors))
	case alert.Status == StatusWarning:
		b.WriteString(errorBlock("WARNINGS", alert.Errors))
	default:
		b.WriteString("OPERATIONAL AGAIN.\n\n")
	}
	return b.String()
}

func errorBlock(title string, errs []ClientError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n\n", title)
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	return b.String()
}

// Subject builds the alert mail subject line, matching the teacher's
// bracketed-tag convention for gateway/service log fields.
func Subject(satName string) string {
	return fmt.Sprintf("[OUTERNET MONITOR ALERT] %s", satName)
}
