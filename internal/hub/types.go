package hub

// Room describes the room a device has been assigned to on the hub.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attributes is the hub's per-device attribute bag. The hub reports many
// more attributes than we consume; only the ones the bridge normalises are
// mapped here, and unknown keys are ignored by the JSON decoder.
//
// Pointer fields distinguish "attribute absent" from a genuine zero value
// (a temperature of 0.0 and a missing temperature are different things).
type Attributes struct {
	CustomName      string `json:"customName,omitempty"`
	Model           string `json:"model,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	SerialNumber    string `json:"serialNumber,omitempty"`

	BatteryPercentage *int `json:"batteryPercentage,omitempty"`

	// Environment sensing
	CurrentTemperature *float64 `json:"currentTemperature,omitempty"`
	CurrentRH          *int     `json:"currentRH,omitempty"`
	CurrentPM25        *int     `json:"currentPM25,omitempty"`
	CurrentCO2         *int     `json:"currentCO2,omitempty"`
	VOCIndex           *int     `json:"vocIndex,omitempty"`

	// Presence and aperture
	IsDetected *bool `json:"isDetected,omitempty"`
	IsOpen     *bool `json:"isOpen,omitempty"`

	// Lights
	IsOn             *bool    `json:"isOn,omitempty"`
	LightLevel       *float64 `json:"lightLevel,omitempty"`
	ColorTemperature *int     `json:"colorTemperature,omitempty"`
	ColorHue         *float64 `json:"colorHue,omitempty"`
	ColorSaturation  *float64 `json:"colorSaturation,omitempty"`

	// Air purifiers
	FanMode           string `json:"fanMode,omitempty"`
	MotorState        *int   `json:"motorState,omitempty"`
	MotorRuntime      *int   `json:"motorRuntime,omitempty"`
	FilterAlarmStatus *bool  `json:"filterAlarmStatus,omitempty"`
	FilterElapsedTime *int   `json:"filterElapsedTime,omitempty"`
	FilterLifetime    *int   `json:"filterLifetime,omitempty"`

	// Smart plugs with energy metering
	CurrentActivePower  *float64 `json:"currentActivePower,omitempty"`
	CurrentAmps         *float64 `json:"currentAmps,omitempty"`
	CurrentVoltage      *float64 `json:"currentVoltage,omitempty"`
	TotalEnergyConsumed *float64 `json:"totalEnergyConsumed,omitempty"`
}

// Device is one device record as returned by the hub's REST API.
//
// Type is the hub's coarse category ("sensor", "light", ...); DeviceType is
// the specific kind ("environmentSensor", "motionSensor", ...) and is what
// the bridge classifies on.
type Device struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	DeviceType  string     `json:"deviceType"`
	IsReachable bool       `json:"isReachable"`
	Room        *Room      `json:"room,omitempty"`
	Attributes  Attributes `json:"attributes"`
}

// EventDeviceStateChanged is the event type the hub emits when a device's
// state changes. Other event types (scene updates, user presence) exist but
// are not consumed by the bridge.
const EventDeviceStateChanged = "deviceStateChanged"

// Event is one frame from the hub's websocket event feed.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Time string    `json:"time,omitempty"`
	Data EventData `json:"data"`
}

// EventData identifies the device an event refers to. The attributes carried
// here are partial deltas only; consumers needing the full device state must
// re-fetch it via Client.GetDevice.
type EventData struct {
	ID         string     `json:"id"`
	DeviceType string     `json:"deviceType,omitempty"`
	Attributes Attributes `json:"attributes"`
}
