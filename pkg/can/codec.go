package can

import (
	"fmt"
	"math"
	"strings"
)

// Byte offsets within the payload.
const (
	offsetStatus       = 0
	offsetDistanceLow  = 1
	offsetDistanceHigh = 2
	offsetSide         = 3
)

// Reading is the subset of a detection event that ends up on the bus.
type Reading struct {
	Algorithm      Algorithm
	Active         bool
	DistanceMeters float64

	// Side is only meaningful for BlindSpotDetection. Anything other than
	// SideRight (any letter case), including the empty string, means left.
	Side string
}

// IsRight reports whether the reading refers to the right-hand side.
func (r Reading) IsRight() bool {
	return strings.EqualFold(r.Side, SideRight)
}

// DistanceCentimeters converts meters to whole centimeters, rounded to the
// nearest integer and reduced modulo 65536. Large distances wrap, they are not
// clamped.
func DistanceCentimeters(meters float64) uint16 {
	cm := math.Mod(math.Round(meters*100), 1<<16)
	if cm < 0 {
		cm += 1 << 16
	}
	return uint16(cm)
}

// Encode packs a reading into a standard CAN frame. It never fails: unknown
// algorithms are routed to IDUnknown.
func Encode(r Reading) Frame {
	f := Frame{ID: r.Algorithm.ArbitrationID()}

	if r.Active {
		f.Data[offsetStatus] = 1
	}

	cm := DistanceCentimeters(r.DistanceMeters)
	f.Data[offsetDistanceLow] = byte(cm & 0xFF)
	f.Data[offsetDistanceHigh] = byte((cm >> 8) & 0xFF)

	if r.Algorithm == BlindSpotDetection && r.IsRight() {
		f.Data[offsetSide] = 1
	}

	return f
}

// Decode unpacks a frame produced by Encode. Distances come back at
// centimeter resolution; the side of a blind spot frame is SideRight or
// SideLeft.
func Decode(f Frame) (Reading, error) {
	if err := f.Validate(); err != nil {
		return Reading{}, fmt.Errorf("decode frame: %w", err)
	}

	cm := uint16(f.Data[offsetDistanceLow]) | uint16(f.Data[offsetDistanceHigh])<<8
	r := Reading{
		Algorithm:      AlgorithmForID(f.ID),
		Active:         f.Data[offsetStatus] != 0,
		DistanceMeters: float64(cm) / 100,
	}

	if r.Algorithm == BlindSpotDetection {
		r.Side = SideLeft
		if f.Data[offsetSide] != 0 {
			r.Side = SideRight
		}
	}

	return r, nil
}
