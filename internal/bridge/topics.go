package bridge

import "fmt"

// suffixes maps canonical device types to their topic path segment.
var suffixes = map[DeviceType]string{
	TypeEnvironmentSensor: "sensor",
	TypeMotionSensor:      "motion",
	TypeOpenCloseSensor:   "door",
	TypeLight:             "light",
	TypeAirPurifier:       "purifier",
	TypeOutlet:            "outlet",
	TypeController:        "controller",
}

const unknownSuffix = "unknown"

// TopicSuffix returns the topic path segment for a device type. Types
// outside the canonical set (new or unrecognised hardware) route under
// "unknown" so they remain observable without polluting the typed topic
// space.
func TopicSuffix(devType DeviceType) string {
	if s, ok := suffixes[devType]; ok {
		return s
	}
	return unknownSuffix
}

// StateTopic builds the publish topic for a device:
// {base}/{type suffix}/{device id}.
func StateTopic(baseTopic string, devType DeviceType, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", baseTopic, TopicSuffix(devType), deviceID)
}
