package canpub

// Built-in detection events sent when no event file is given.
var (
	ExampleBlindSpot = []byte(`{
  "AlgorithmID": "BlindSpotDetection",
  "Timestamp": "2024-04-27T12:35:56.789Z",
  "Priority": "Medium",
  "Status": true,
  "MessageID": "bs-12345",
  "Data": {
    "Side": "Direita",
    "DistanceToVehicle": 1.5
  }
}`)

	ExampleRearCollision = []byte(`{
  "AlgorithmID": "RearCollision",
  "Timestamp": "2024-04-27T12:35:56.789Z",
  "Priority": "Medium",
  "Status": true,
  "MessageID": "rc-54321",
  "Data": {
    "DistanceToVehicle": 2.0
  }
}`)
)

// Examples returns the built-in events in send order.
func Examples() [][]byte {
	return [][]byte{ExampleBlindSpot, ExampleRearCollision}
}
