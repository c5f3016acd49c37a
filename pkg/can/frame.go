// Package can encodes ADAS detection readings into fixed-layout standard CAN
// frames and decodes them back.
//
// Frame layout (8 bytes, little-endian distance):
//
//	byte 0    status (1 = detection active)
//	byte 1-2  distance to vehicle in centimeters, wraps at 65536
//	byte 3    side flag, blind spot frames only (1 = right)
//	byte 4-7  zero padding
package can

import (
	"errors"
	"fmt"
)

const (
	// DataLength is the fixed payload size of every frame produced here.
	DataLength = 8

	// MaxStandardID is the largest 11-bit (non-extended) identifier.
	MaxStandardID uint32 = 0x7FF
)

// Side tokens used by the blind spot detector.
const (
	SideRight = "Direita"
	SideLeft  = "Esquerda"
)

// Frame is a classic CAN data frame.
type Frame struct {
	ID       uint32
	Extended bool
	Data     [DataLength]byte
}

// DLC returns the data length code. Frames built by Encode are always full.
func (f Frame) DLC() uint8 {
	return DataLength
}

// Bytes returns a copy of the payload as a slice.
func (f Frame) Bytes() []byte {
	b := make([]byte, DataLength)
	copy(b, f.Data[:])
	return b
}

// Validate checks that the frame carries a standard identifier.
func (f Frame) Validate() error {
	if f.Extended {
		return errors.New("extended identifiers are not supported")
	}
	if f.ID > MaxStandardID {
		return fmt.Errorf("identifier 0x%X exceeds 11 bits", f.ID)
	}
	return nil
}

func (f Frame) String() string {
	return fmt.Sprintf("ID: %03X Len: %d Data: % X", f.ID, f.DLC(), f.Data[:])
}
