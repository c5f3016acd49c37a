package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	// Example: "adas/+/detections" matches "adas/front/detections".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#".
	// It must be the last character in the topic filter.
	MultiWildcard = "#"

	// SharePrefix marks an MQTT v5 shared subscription.
	SharePrefix = "$share"
)
