// Package codec implements the v1 heartbeat wire format: a bit-packed
// binary stream with a 24-bit synchronization marker delimiting
// fixed-layout 34-byte datagrams, lossy quantization with saturation,
// and delta-encoded timestamps across a batch (spec.md §4.2).
package codec

import "github.com/google/uuid"

// Heartbeat is one telemetry sample as exchanged with callers of this
// package, after quantization has been undone (decode) or before it is
// applied (encode). See spec.md §3.
type Heartbeat struct {
	ClientID        uuid.UUID
	Timestamp       float64 // seconds since epoch, client wall clock
	TunerVendor     string  // 4-hex-digit string, e.g. "1d6b"
	TunerModel      string  // 4-hex-digit string, e.g. "0002"
	TunerPreset     int     // [0, 31], 0 = unknown
	SignalLock      bool
	ServiceLock     bool
	SignalStrength  int     // [0, 100] percent on input
	SNR             float64 // roughly [0, 3.1]
	Bitrate         int64   // bits per second
	CarouselCount   int     // [0, 31]
	CarouselStatus  []bool  // len == CarouselCount on a valid input
}

// Batch is an ordered sequence of heartbeats, newest-first, the unit
// of timestamp delta encoding (spec.md §3).
type Batch []Heartbeat

// DatagramBits is the fixed size in bits of a single v1 datagram.
const DatagramBits = 272

// DatagramBytes is the fixed size in bytes of a single v1 datagram.
const DatagramBytes = DatagramBits / 8

// marker is the 3-byte ASCII constant "OHD" that opens and closes
// every v1 datagram (spec.md §4.1).
var marker = []byte{0x4F, 0x48, 0x44}

const markerBits = 24
