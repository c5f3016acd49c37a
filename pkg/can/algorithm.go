package can

// Algorithm identifies the ADAS detection algorithm that produced an event.
type Algorithm int

const (
	AlgorithmUnknown Algorithm = iota
	BlindSpotDetection
	PedestrianDetection
	FrontalCollision
	RearCollision
)

// Arbitration identifiers assigned to each algorithm.
// These form the contract with consumers on the CAN side and must not change.
const (
	IDBlindSpotDetection  uint32 = 0x100
	IDPedestrianDetection uint32 = 0x101
	IDFrontalCollision    uint32 = 0x102
	IDRearCollision       uint32 = 0x103

	// IDUnknown is the sentinel used for any algorithm outside the table.
	IDUnknown uint32 = 0x1FF
)

// ParseAlgorithm resolves an algorithm name as it appears in the event JSON.
// Matching is exact; unrecognized names yield AlgorithmUnknown.
func ParseAlgorithm(name string) Algorithm {
	switch name {
	case "BlindSpotDetection":
		return BlindSpotDetection
	case "PedestrianDetection":
		return PedestrianDetection
	case "FrontalCollision":
		return FrontalCollision
	case "RearCollision":
		return RearCollision
	default:
		return AlgorithmUnknown
	}
}

// AlgorithmForID is the inverse of ArbitrationID.
func AlgorithmForID(id uint32) Algorithm {
	switch id {
	case IDBlindSpotDetection:
		return BlindSpotDetection
	case IDPedestrianDetection:
		return PedestrianDetection
	case IDFrontalCollision:
		return FrontalCollision
	case IDRearCollision:
		return RearCollision
	default:
		return AlgorithmUnknown
	}
}

// ArbitrationID returns the standard 11-bit CAN identifier for the algorithm.
func (a Algorithm) ArbitrationID() uint32 {
	switch a {
	case BlindSpotDetection:
		return IDBlindSpotDetection
	case PedestrianDetection:
		return IDPedestrianDetection
	case FrontalCollision:
		return IDFrontalCollision
	case RearCollision:
		return IDRearCollision
	default:
		return IDUnknown
	}
}

func (a Algorithm) String() string {
	switch a {
	case BlindSpotDetection:
		return "BlindSpotDetection"
	case PedestrianDetection:
		return "PedestrianDetection"
	case FrontalCollision:
		return "FrontalCollision"
	case RearCollision:
		return "RearCollision"
	default:
		return "Unknown"
	}
}
