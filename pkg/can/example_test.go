package can_test

import (
	"fmt"

	"github.com/autopeer-io/canpub/pkg/can"
)

func ExampleEncode() {
	f := can.Encode(can.Reading{
		Algorithm:      can.ParseAlgorithm("BlindSpotDetection"),
		Active:         true,
		DistanceMeters: 1.5,
		Side:           "Direita",
	})
	fmt.Println(f)
	// Output: ID: 100 Len: 8 Data: 01 96 00 01 00 00 00 00
}
