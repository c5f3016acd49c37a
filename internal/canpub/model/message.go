package model

import (
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/canpub/pkg/can"
)

// StatusMessage is the payload published for every encoded frame.
type StatusMessage struct {
	AlgorithmID string     `json:"AlgorithmID"`
	CANMessage  CANMessage `json:"CAN_Message"`
}

// CANMessage is the JSON projection of a can.Frame. Data is a list of
// integers rather than a []byte, which encoding/json would render as base64.
type CANMessage struct {
	ArbitrationID uint32 `json:"arbitration_id"`
	Data          []int  `json:"data"`
}

// NewStatusMessage builds the payload for a frame. algorithmID is echoed
// verbatim, even when it was not recognized.
func NewStatusMessage(algorithmID string, f can.Frame) *StatusMessage {
	data := make([]int, len(f.Data))
	for i, b := range f.Data {
		data[i] = int(b)
	}

	return &StatusMessage{
		AlgorithmID: algorithmID,
		CANMessage: CANMessage{
			ArbitrationID: f.ID,
			Data:          data,
		},
	}
}

// Marshal returns the wire representation.
func (m *StatusMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ParseStatusMessage decodes a published payload back into a frame.
func ParseStatusMessage(raw []byte) (*StatusMessage, can.Frame, error) {
	var m StatusMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, can.Frame{}, fmt.Errorf("decode status message: %w", err)
	}

	if len(m.CANMessage.Data) != can.DataLength {
		return nil, can.Frame{}, fmt.Errorf("CAN_Message.data has %d bytes, want %d", len(m.CANMessage.Data), can.DataLength)
	}

	f := can.Frame{ID: m.CANMessage.ArbitrationID}
	for i, v := range m.CANMessage.Data {
		if v < 0 || v > 0xFF {
			return nil, can.Frame{}, fmt.Errorf("CAN_Message.data[%d] = %d is not a byte", i, v)
		}
		f.Data[i] = byte(v)
	}

	return &m, f, nil
}
