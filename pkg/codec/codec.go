package codec

import (
	"time"

	"github.com/othernet-project/monitoring/pkg/bitstream"
)

// Options tunes the encoder's handling of the known wire-field
// truncations described in spec.md §9.
type Options struct {
	// Strict refuses to encode a batch whose computed delta exceeds 15,
	// or whose carousel count/status would not fit in the 31-wide
	// carousel_status field, instead of silently truncating either to
	// fit. Off by default to stay wire-compatible with existing v1
	// producers.
	Strict bool
}

// Version is the only wire version this package implements.
const Version = 1

// EncodeNow encodes batch using the current wall clock as the
// "server-observed send time" base (spec.md §4.2.2).
func EncodeNow(batch Batch, version int, opts Options) ([]byte, error) {
	return Encode(batch, version, nowSeconds(), opts)
}

// Encode serializes batch into a v1 byte stream. baseTime is the
// server-observed send time at encode start (spec.md §4.2.2); pass an
// explicit value for deterministic tests.
func Encode(batch Batch, version int, baseTime float64, opts Options) ([]byte, error) {
	if version != Version {
		return nil, newError(KindUnsupportedVersion, "version %d not supported", version)
	}

	datagrams := make([]*bitstream.Stream, len(batch))
	base := baseTime
	// Iterate the batch in reverse order (batch is newest-first; this
	// walks oldest-first). The oldest heartbeat's delta is relative to
	// baseTime; every later one is relative to the previously consumed,
	// next-older heartbeat's raw timestamp, per spec.md §4.2.2 step 2.
	for i := len(batch) - 1; i >= 0; i-- {
		h := batch[i]
		delta := quantizeDelta(base, h.Timestamp)
		if opts.Strict && delta > 0xF {
			return nil, newError(KindStrictDelta, "delta %d for heartbeat %s exceeds 4-bit field", delta, h.ClientID)
		}
		if opts.Strict && (h.CarouselCount > widthCarouselStatus || len(h.CarouselStatus) > widthCarouselStatus) {
			return nil, newError(KindStrictCarousel, "carousel count %d (status len %d) for heartbeat %s exceeds %d-bit field",
				h.CarouselCount, len(h.CarouselStatus), h.ClientID, widthCarouselStatus)
		}
		dg, err := encodeDatagram(h, uint64(delta)&0xF)
		if err != nil {
			return nil, err
		}
		datagrams[i] = dg
		base = h.Timestamp
	}

	stream := bitstream.New(0)
	for _, dg := range datagrams {
		stream.Append(dg)
	}
	return stream.ToBytes(), nil
}

// Decode parses a v1 byte stream back into a batch, restoring input
// order. now is the decode-time wall clock used as the initial base
// for timestamp reconstruction (spec.md §4.2.2); pass an explicit
// value for deterministic tests. Fewer than two located markers is not
// an error: it yields an empty batch, since a lone marker carries no
// complete datagram (spec.md §4.2.3). A located span that isn't
// exactly one datagram wide, or whose fields don't parse, surfaces a
// KindInvalidStream error instead of silently dropping data.
func Decode(stream []byte, version int, now float64) (Batch, error) {
	if version != Version {
		return nil, newError(KindUnsupportedVersion, "version %d not supported", version)
	}

	bits := bitstream.FromBytes(stream)
	markerPattern := bitstream.BoolsFromBytes(marker)
	positions := bits.FindMarker(markerPattern)
	if len(positions) < 2 {
		return Batch{}, nil
	}

	// Walk positions in reverse, pairing (end, start) two at a time:
	// the datagram nearest the end of the stream is decoded first.
	reversed := make([]int, len(positions))
	for i, p := range positions {
		reversed[len(positions)-1-i] = p
	}

	var decoded []Heartbeat
	base := now
	for i := 0; i+1 < len(reversed); i += 2 {
		end := reversed[i]
		start := reversed[i+1]
		if end <= start || end-start != DatagramBits-markerBits {
			return nil, newError(KindInvalidStream, "unexpected datagram span [%d,%d)", start, end)
		}
		window := bits.Slice(start, end)
		h, delta, err := decodeDatagram(window)
		if err != nil {
			return nil, err
		}
		h.Timestamp = base - float64(delta)*5.0
		base = h.Timestamp
		decoded = append(decoded, h)
	}

	// Reverse back to restore original (newest-first) order.
	out := make(Batch, len(decoded))
	for i, h := range decoded {
		out[len(decoded)-1-i] = h
	}
	return out, nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
