package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/jsonc"

	"github.com/autopeer-io/canpub/pkg/can"
)

// DetectionEvent is the JSON document emitted by an ADAS detector.
//
// Required fields are pointers so that a missing field can be told apart from
// its zero value.
type DetectionEvent struct {
	AlgorithmID *string    `json:"AlgorithmID"`
	Timestamp   string     `json:"Timestamp,omitempty"`
	Priority    string     `json:"Priority,omitempty"`
	Status      *bool      `json:"Status"`
	MessageID   string     `json:"MessageID,omitempty"`
	Data        *EventData `json:"Data"`
}

// EventData holds the algorithm specific measurements.
type EventData struct {
	Side              string   `json:"Side,omitempty"`
	DistanceToVehicle *float64 `json:"DistanceToVehicle"`
}

// ParseEvent decodes and validates a detection event. The input may contain
// comments and trailing commas. Unknown fields are ignored.
func ParseEvent(raw []byte) (*DetectionEvent, error) {
	var ev DetectionEvent
	if err := json.Unmarshal(jsonc.ToJSON(raw), &ev); err != nil {
		return nil, fmt.Errorf("decode detection event: %w", err)
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}

	return &ev, nil
}

// Validate reports the first missing or out of range required field.
func (e *DetectionEvent) Validate() error {
	switch {
	case e.AlgorithmID == nil:
		return errors.New("missing field AlgorithmID")
	case e.Status == nil:
		return errors.New("missing field Status")
	case e.Data == nil:
		return errors.New("missing field Data")
	case e.Data.DistanceToVehicle == nil:
		return errors.New("missing field Data.DistanceToVehicle")
	}

	d := *e.Data.DistanceToVehicle
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("Data.DistanceToVehicle must be a non-negative finite number, got %v", d)
	}

	return nil
}

// Algorithm returns the raw algorithm name as received.
func (e *DetectionEvent) Algorithm() string {
	if e.AlgorithmID == nil {
		return ""
	}
	return *e.AlgorithmID
}

// Reading projects the event onto the fields carried by the CAN frame.
// The event must have passed Validate.
func (e *DetectionEvent) Reading() can.Reading {
	return can.Reading{
		Algorithm:      can.ParseAlgorithm(e.Algorithm()),
		Active:         *e.Status,
		DistanceMeters: *e.Data.DistanceToVehicle,
		Side:           e.Data.Side,
	}
}

// Frame encodes the event.
func (e *DetectionEvent) Frame() can.Frame {
	return can.Encode(e.Reading())
}
