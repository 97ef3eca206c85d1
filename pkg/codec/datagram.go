package codec

import (
	"github.com/google/uuid"
	"github.com/othernet-project/monitoring/pkg/bitstream"
)

// field bit offsets, per spec.md §4.2.1.
const (
	offMarkerStart      = 0
	offClientID         = 24
	offTimestampDelta   = 152
	offTunerVendor      = 156
	offTunerModel       = 172
	offTunerPreset      = 188
	offSignalLock       = 193
	offServiceLock      = 194
	offSignalStrength   = 195
	offSNR              = 199
	offBitrate          = 204
	offCarouselCount    = 210
	offCarouselStatus   = 215
	offReserved         = 246
	offMarkerEnd        = 248

	widthClientID       = 128
	widthTimestampDelta = 4
	widthTunerVendor    = 16
	widthTunerModel     = 16
	widthTunerPreset    = 5
	widthSignalStrength = 4
	widthSNR            = 5
	widthBitrate        = 6
	widthCarouselCount  = 5
	widthCarouselStatus = 31
	widthReserved       = 2
)

// encodeDatagram writes one heartbeat into a fresh DatagramBits-wide
// stream, given the already-computed 4-bit (possibly truncated) delta
// value. It writes both the leading and the trailing marker, so the
// returned stream is a complete datagram.
func encodeDatagram(h Heartbeat, deltaLow4 uint64) (*bitstream.Stream, error) {
	s := bitstream.New(DatagramBits)

	markerBools := bitstream.BoolsFromBytes(marker)
	s.PutBools(offMarkerStart, markerBools)

	clientIDBytes, err := h.ClientID.MarshalBinary()
	if err != nil {
		return nil, newError(KindInvalidStream, "invalid client_id: %v", err)
	}
	s.PutBools(offClientID, bitstream.BoolsFromBytes(clientIDBytes))

	s.PutUint(offTimestampDelta, widthTimestampDelta, deltaLow4)

	vendor, err := parseHexID(h.TunerVendor)
	if err != nil {
		return nil, err
	}
	s.PutUint(offTunerVendor, widthTunerVendor, vendor)

	model, err := parseHexID(h.TunerModel)
	if err != nil {
		return nil, err
	}
	s.PutUint(offTunerModel, widthTunerModel, model)

	s.PutUint(offTunerPreset, widthTunerPreset, uint64(h.TunerPreset))
	s.PutBit(offSignalLock, h.SignalLock)
	s.PutBit(offServiceLock, h.ServiceLock)
	s.PutUint(offSignalStrength, widthSignalStrength, uint64(quantizeSignalStrength(h.SignalStrength)))
	s.PutUint(offSNR, widthSNR, uint64(quantizeSNR(h.SNR)))
	s.PutUint(offBitrate, widthBitrate, uint64(quantizeBitrate(h.Bitrate)))

	count := h.CarouselCount
	if count > widthCarouselStatus {
		count = widthCarouselStatus
	}
	s.PutUint(offCarouselCount, widthCarouselCount, uint64(count))

	status := make([]bool, widthCarouselStatus)
	copy(status, h.CarouselStatus)
	s.PutBools(offCarouselStatus, status)

	// offReserved..offMarkerEnd stays zero.
	s.PutBools(offMarkerEnd, markerBools)

	return s, nil
}

// decodeDatagram is the inverse of encodeDatagram for the 248-bit
// window up to (but excluding) the trailing end marker; it returns
// the heartbeat with its wire-domain timestamp delta still in place
// of Timestamp, for the caller to reconstruct against a running base.
func decodeDatagram(s *bitstream.Stream) (Heartbeat, uint64, error) {
	var h Heartbeat

	clientIDBits := s.GetBools(offClientID, widthClientID)
	clientIDBytes := boolsToBytes(clientIDBits)
	id, err := uuid.FromBytes(clientIDBytes)
	if err != nil {
		return h, 0, newError(KindInvalidStream, "malformed client_id bytes: %v", err)
	}
	h.ClientID = id

	delta := s.GetUint(offTimestampDelta, widthTimestampDelta)

	h.TunerVendor = formatHexID(s.GetUint(offTunerVendor, widthTunerVendor))
	h.TunerModel = formatHexID(s.GetUint(offTunerModel, widthTunerModel))
	h.TunerPreset = int(s.GetUint(offTunerPreset, widthTunerPreset))
	h.SignalLock = s.GetBit(offSignalLock)
	h.ServiceLock = s.GetBit(offServiceLock)
	h.SignalStrength = dequantizeSignalStrength(s.GetUint(offSignalStrength, widthSignalStrength))
	h.SNR = dequantizeSNR(s.GetUint(offSNR, widthSNR))
	h.Bitrate = dequantizeBitrate(s.GetUint(offBitrate, widthBitrate))

	count := int(s.GetUint(offCarouselCount, widthCarouselCount))
	h.CarouselCount = count
	full := s.GetBools(offCarouselStatus, widthCarouselStatus)
	if count > len(full) {
		count = len(full)
	}
	h.CarouselStatus = append([]bool(nil), full[:count]...)

	return h, delta, nil
}

func boolsToBytes(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}
