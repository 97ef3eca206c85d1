package codec

import (
	"fmt"
	"strconv"
)

// parseHexID parses a 4-hex-digit USB vendor/product id string into
// its integer value (spec.md §4.2.2).
func parseHexID(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, newError(KindInvalidStream, "invalid hex id %q: %v", s, err)
	}
	return v, nil
}

// formatHexID formats an integer back into a lowercase, zero-padded
// 4-hex-digit string (spec.md §4.2.2).
func formatHexID(v uint64) string {
	return fmt.Sprintf("%04x", v)
}
