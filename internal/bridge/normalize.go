package bridge

import (
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/dirigera-bridge/internal/hub"
)

// DeviceType is the canonical device classification used in payloads and
// topic routing.
type DeviceType string

const (
	TypeEnvironmentSensor DeviceType = "environment_sensor"
	TypeMotionSensor      DeviceType = "motion_sensor"
	TypeOpenCloseSensor   DeviceType = "open_close_sensor"
	TypeLight             DeviceType = "light"
	TypeAirPurifier       DeviceType = "air_purifier"
	TypeOutlet            DeviceType = "outlet"
	TypeController        DeviceType = "controller"
)

// classify maps the hub's deviceType tag to a canonical DeviceType.
//
// Remote controls come in several flavours (lightController,
// blindsController, soundController, shortcutController) that all behave
// identically from the bridge's point of view, so any tag ending in
// "Controller" classifies as a controller.
//
// Returns the canonical type and true for recognised tags; for unknown
// tags it returns the raw tag itself and false, so new device kinds flow
// through with identity intact rather than being dropped.
func classify(hubType string) (DeviceType, bool) {
	switch hubType {
	case "environmentSensor":
		return TypeEnvironmentSensor, true
	case "motionSensor":
		return TypeMotionSensor, true
	case "openCloseSensor":
		return TypeOpenCloseSensor, true
	case "light":
		return TypeLight, true
	case "airPurifier":
		return TypeAirPurifier, true
	case "outlet":
		return TypeOutlet, true
	}
	if strings.HasSuffix(hubType, "Controller") {
		return TypeController, true
	}
	return DeviceType(hubType), false
}

// canonicalDeviceID strips the numeric sub-unit suffix from controller IDs.
//
// Multi-button controllers register one hub device per button, with IDs of
// the form "<uuid>_1", "<uuid>_2". Their state (battery, reachability) is
// shared, so all sub-units collapse onto the base ID and deduplicate as one
// device. Only a trailing "_<digits>" is stripped; IDs containing
// underscores for other reasons pass through untouched.
func canonicalDeviceID(id string, devType DeviceType) string {
	if devType != TypeController {
		return id
	}
	i := strings.LastIndex(id, "_")
	if i <= 0 {
		return id
	}
	if _, err := strconv.Atoi(id[i+1:]); err != nil {
		return id
	}
	return id[:i]
}

// clonePtr copies an optional value so retained records never alias the
// decoded device they were built from.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Normalize maps a raw hub device to a canonical Record stamped with ts.
//
// Identity (ID, name, type, room) is carried for every device. State fields
// are populated per device class from the hub's attribute names; attributes
// irrelevant to the class are ignored. A device with an unrecognised type
// tag yields a minimal identity-only record - unknown hardware is surfaced,
// not silently dropped.
//
// Returns ErrMissingIdentity when the device carries no ID; such records
// cannot be deduplicated or routed and must be skipped by the caller.
func Normalize(d hub.Device, ts time.Time) (Record, error) {
	if d.ID == "" {
		return Record{}, ErrMissingIdentity
	}

	devType, known := classify(d.DeviceType)

	rec := Record{
		DeviceID:   canonicalDeviceID(d.ID, devType),
		DeviceName: d.Attributes.CustomName,
		DeviceType: string(devType),
		Timestamp:  ts,
	}
	if d.Room != nil {
		rec.Room = d.Room.Name
	}
	if !known {
		return rec, nil
	}

	attrs := d.Attributes
	switch devType {
	case TypeEnvironmentSensor:
		rec.Temperature = clonePtr(attrs.CurrentTemperature)
		rec.Humidity = clonePtr(attrs.CurrentRH)
		rec.PM25 = clonePtr(attrs.CurrentPM25)
		rec.CO2 = clonePtr(attrs.CurrentCO2)
		rec.VOCIndex = clonePtr(attrs.VOCIndex)

	case TypeMotionSensor:
		rec.IsDetected = clonePtr(attrs.IsDetected)
		rec.BatteryPercentage = clonePtr(attrs.BatteryPercentage)

	case TypeOpenCloseSensor:
		rec.IsOpen = clonePtr(attrs.IsOpen)
		rec.BatteryPercentage = clonePtr(attrs.BatteryPercentage)

	case TypeLight:
		rec.IsOn = clonePtr(attrs.IsOn)
		rec.Brightness = clonePtr(attrs.LightLevel)
		rec.ColorTemperature = clonePtr(attrs.ColorTemperature)
		rec.ColorHue = clonePtr(attrs.ColorHue)
		rec.ColorSaturation = clonePtr(attrs.ColorSaturation)

	case TypeAirPurifier:
		rec.FanMode = attrs.FanMode
		rec.MotorState = clonePtr(attrs.MotorState)
		rec.MotorRuntime = clonePtr(attrs.MotorRuntime)
		rec.PM25 = clonePtr(attrs.CurrentPM25)
		rec.FilterAlarm = clonePtr(attrs.FilterAlarmStatus)
		rec.FilterElapsedTime = clonePtr(attrs.FilterElapsedTime)
		rec.FilterLifetime = clonePtr(attrs.FilterLifetime)

	case TypeOutlet:
		rec.IsOn = clonePtr(attrs.IsOn)
		rec.Power = clonePtr(attrs.CurrentActivePower)
		rec.Current = clonePtr(attrs.CurrentAmps)
		rec.Voltage = clonePtr(attrs.CurrentVoltage)
		rec.EnergyTotal = clonePtr(attrs.TotalEnergyConsumed)

	case TypeController:
		rec.IsOn = clonePtr(attrs.IsOn)
		rec.BatteryPercentage = clonePtr(attrs.BatteryPercentage)
	}

	return rec, nil
}
