// Package presets holds the static table mapping satellite preset ids to
// the tuner parameters and display names used throughout the wire codec,
// the classifier, and the alerting pipeline.
package presets

import "fmt"

// Unknown is the reserved preset id for datapoints that do not match any
// known satellite configuration.
const Unknown = 0

// MaxID is the largest preset id representable on the wire (5 bits).
const MaxID = 31

// Preset describes one satellite+transponder tuning configuration.
type Preset struct {
	ID            int
	Name          string
	Frequency     string
	SymbolRate    string
	Polarization  string
	Delivery      string
	Modulation    string
}

var table = map[int]Preset{
	1: {1, "Galaxy 19 (97.0W)", "11929", "22000", "v", "DVB-S", "QPSK"},
	2: {2, "Hotbird 13 (13.0E)", "11471", "27500", "v", "DVB-S", "QPSK"},
	3: {3, "Intelsat 20 (68.5E)", "12522", "27500", "v", "DVB-S", "QPSK"},
	4: {4, "AsiaSat 5 C-band (100.5E)", "3960", "30000", "h", "DVB-S", "QPSK"},
	5: {5, "Eutelsat (113.0W)", "12089", "11719", "h", "DVB-S", "QPSK"},
	6: {6, "ABS-2 (74.9E)", "11734", "44000", "h", "DVB-S", "QPSK"},
}

// Name returns the display name for id, or "Unknown" for id 0 or any id
// that does not appear in the table.
func Name(id int) string {
	if p, ok := table[id]; ok {
		return p.Name
	}
	return "Unknown"
}

// Lookup returns the preset for id and whether it was found.
func Lookup(id int) (Preset, bool) {
	p, ok := table[id]
	return p, ok
}

// IDs returns every known preset id, sorted ascending, not including
// Unknown. Callers that need the default NORMAL status map (spec.md
// §4.5) should include Unknown separately if their data can carry it.
func IDs() []int {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	// Map iteration order is unspecified, so the ids are sorted here.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// MatchByParameters finds the preset id whose (frequency, symbolrate,
// polarization, delivery, modulation) tuple matches the given strings
// exactly, per spec.md §6. Returns Unknown if nothing matches.
func MatchByParameters(frequency, symbolRate, polarization, delivery, modulation string) int {
	for id, p := range table {
		if p.Frequency == frequency && p.SymbolRate == symbolRate &&
			p.Polarization == polarization && p.Delivery == delivery &&
			p.Modulation == modulation {
			return id
		}
	}
	return Unknown
}

// ErrInvalidID reports a preset id outside the representable range.
type ErrInvalidID struct{ ID int }

func (e *ErrInvalidID) Error() string {
	return fmt.Sprintf("preset id %d outside valid range [0, %d]", e.ID, MaxID)
}

// Validate returns ErrInvalidID if id cannot be represented in the
// 5-bit tuner_preset wire field.
func Validate(id int) error {
	if id < 0 || id > MaxID {
		return &ErrInvalidID{ID: id}
	}
	return nil
}
