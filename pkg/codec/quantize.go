package codec

import "math"

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// quantizeSignalStrength implements spec.md §4.2.2: clamp(floor(v/10), 0, 10).
// The binding limit is the clamp to 10, not the 4-bit field width (which
// could hold up to 15).
func quantizeSignalStrength(v int) int {
	return clampInt(int(math.Floor(float64(v)/10.0)), 0, 10)
}

func dequantizeSignalStrength(q uint64) int {
	return int(q) * 10
}

// quantizeSNR implements clamp(floor(v*10), 0, 31).
func quantizeSNR(v float64) int {
	return clampInt(int(math.Floor(v*10.0)), 0, 31)
}

func dequantizeSNR(q uint64) float64 {
	return float64(q) / 10.0
}

// quantizeBitrate implements clamp(floor(v/10_000), 0, 63).
func quantizeBitrate(v int64) int {
	return clampInt(int(math.Floor(float64(v)/10000.0)), 0, 63)
}

func dequantizeBitrate(q uint64) int64 {
	return int64(q) * 10000
}

// quantizeDelta implements the full 7-bit-domain clamp described in
// spec.md §4.2.2 and §9: clamp(floor((base-ts)/5), 0, 127). The
// caller is responsible for truncating the result to the 4-bit wire
// field (spec.md §9's "known truncation").
func quantizeDelta(base, ts float64) int {
	return clampInt(int(math.Floor((base-ts)/5.0)), 0, 127)
}
