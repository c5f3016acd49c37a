package paths

// Topic segments used by canpub.
// These define the routing contract with CAN-side consumers.

// Egress: canpub -> consumers
const (
	// Messages carries the JSON projection of each encoded CAN frame.
	// Payload: {"AlgorithmID": "...", "CAN_Message": {"arbitration_id": 256, "data": [...]}}
	// Pattern: {root}/messages, "can/messages" with the default root.
	Messages = "messages"
)
