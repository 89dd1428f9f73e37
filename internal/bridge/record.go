package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampLayout renders timestamps as ISO-8601 with millisecond
// precision in UTC, e.g. "2026-03-01T14:05:09.123Z". Consumers parse this
// format; do not change it without versioning the payload.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Record is the canonical normalised device state the bridge publishes.
//
// The identity keys (device_id, device_name, device_type, room, timestamp)
// are always present in the serialised form, even when empty. Type-specific
// state fields use pointers so an absent reading is omitted from the payload
// rather than serialised as null or a misleading zero.
//
// Records are immutable once built; the deduplication store retains them
// across observations.
type Record struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	DeviceType string    `json:"device_type"`
	Room       string    `json:"room"`
	Timestamp  time.Time `json:"-"`

	// Environment sensors
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	PM25        *int     `json:"pm25,omitempty"`
	CO2         *int     `json:"co2,omitempty"`
	VOCIndex    *int     `json:"voc_index,omitempty"`

	// Motion and open/close sensors
	IsDetected        *bool `json:"is_detected,omitempty"`
	IsOpen            *bool `json:"is_open,omitempty"`
	BatteryPercentage *int  `json:"battery_percentage,omitempty"`

	// Lights and outlets
	IsOn             *bool    `json:"is_on,omitempty"`
	Brightness       *float64 `json:"brightness,omitempty"`
	ColorTemperature *int     `json:"color_temperature,omitempty"`
	ColorHue         *float64 `json:"color_hue,omitempty"`
	ColorSaturation  *float64 `json:"color_saturation,omitempty"`

	// Air purifiers
	FanMode           string `json:"fan_mode,omitempty"`
	MotorState        *int   `json:"motor_state,omitempty"`
	MotorRuntime      *int   `json:"motor_runtime,omitempty"`
	FilterAlarm       *bool  `json:"filter_alarm,omitempty"`
	FilterElapsedTime *int   `json:"filter_elapsed_time,omitempty"`
	FilterLifetime    *int   `json:"filter_lifetime,omitempty"`

	// Energy metering outlets
	Power       *float64 `json:"power,omitempty"`
	Current     *float64 `json:"current,omitempty"`
	Voltage     *float64 `json:"voltage,omitempty"`
	EnergyTotal *float64 `json:"energy_total,omitempty"`
}

// MarshalJSON serialises the record with its timestamp rendered in the
// canonical wire format.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Timestamp string `json:"timestamp"`
	}{
		alias:     alias(r),
		Timestamp: r.Timestamp.UTC().Format(timestampLayout),
	})
}

// ptrEq compares two optional values: both absent, or both present and
// equal.
func ptrEq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StateEquals reports whether two records carry identical state. Timestamps
// are ignored - two observations of an unchanged device differ only in when
// they were taken, and must compare equal for deduplication to work.
func (r *Record) StateEquals(o *Record) bool {
	if o == nil {
		return false
	}
	return r.DeviceID == o.DeviceID &&
		r.DeviceName == o.DeviceName &&
		r.DeviceType == o.DeviceType &&
		r.Room == o.Room &&
		r.FanMode == o.FanMode &&
		ptrEq(r.Temperature, o.Temperature) &&
		ptrEq(r.Humidity, o.Humidity) &&
		ptrEq(r.PM25, o.PM25) &&
		ptrEq(r.CO2, o.CO2) &&
		ptrEq(r.VOCIndex, o.VOCIndex) &&
		ptrEq(r.IsDetected, o.IsDetected) &&
		ptrEq(r.IsOpen, o.IsOpen) &&
		ptrEq(r.BatteryPercentage, o.BatteryPercentage) &&
		ptrEq(r.IsOn, o.IsOn) &&
		ptrEq(r.Brightness, o.Brightness) &&
		ptrEq(r.ColorTemperature, o.ColorTemperature) &&
		ptrEq(r.ColorHue, o.ColorHue) &&
		ptrEq(r.ColorSaturation, o.ColorSaturation) &&
		ptrEq(r.MotorState, o.MotorState) &&
		ptrEq(r.MotorRuntime, o.MotorRuntime) &&
		ptrEq(r.FilterAlarm, o.FilterAlarm) &&
		ptrEq(r.FilterElapsedTime, o.FilterElapsedTime) &&
		ptrEq(r.FilterLifetime, o.FilterLifetime) &&
		ptrEq(r.Power, o.Power) &&
		ptrEq(r.Current, o.Current) &&
		ptrEq(r.Voltage, o.Voltage) &&
		ptrEq(r.EnergyTotal, o.EnergyTotal)
}

// StateSummary returns a compact human-readable rendering of the state
// fields, for log lines.
func (r *Record) StateSummary() string {
	parts := make([]string, 0, 6)

	if r.Temperature != nil {
		parts = append(parts, fmt.Sprintf("temp=%.1f°C", *r.Temperature))
	}
	if r.Humidity != nil {
		parts = append(parts, fmt.Sprintf("hum=%d%%", *r.Humidity))
	}
	if r.PM25 != nil {
		parts = append(parts, fmt.Sprintf("pm25=%d", *r.PM25))
	}
	if r.CO2 != nil {
		parts = append(parts, fmt.Sprintf("co2=%dppm", *r.CO2))
	}
	if r.VOCIndex != nil {
		parts = append(parts, fmt.Sprintf("voc=%d", *r.VOCIndex))
	}
	if r.IsDetected != nil {
		parts = append(parts, fmt.Sprintf("motion=%t", *r.IsDetected))
	}
	if r.IsOpen != nil {
		if *r.IsOpen {
			parts = append(parts, "open")
		} else {
			parts = append(parts, "closed")
		}
	}
	if r.IsOn != nil {
		if *r.IsOn {
			parts = append(parts, "on")
		} else {
			parts = append(parts, "off")
		}
	}
	if r.Brightness != nil {
		parts = append(parts, fmt.Sprintf("bri=%.0f%%", *r.Brightness))
	}
	if r.ColorTemperature != nil {
		parts = append(parts, fmt.Sprintf("ct=%dK", *r.ColorTemperature))
	}
	if r.FanMode != "" {
		parts = append(parts, "fan="+r.FanMode)
	}
	if r.Power != nil {
		parts = append(parts, fmt.Sprintf("power=%.1fW", *r.Power))
	}
	if r.EnergyTotal != nil {
		parts = append(parts, fmt.Sprintf("energy=%.2fkWh", *r.EnergyTotal))
	}
	if r.BatteryPercentage != nil {
		parts = append(parts, fmt.Sprintf("batt=%d%%", *r.BatteryPercentage))
	}

	if len(parts) == 0 {
		return "no state fields"
	}
	return strings.Join(parts, " ")
}

// ArchiveFields returns the record's state fields keyed by their wire names,
// for writing to a time-series store. Only present fields are included.
func (r *Record) ArchiveFields() map[string]interface{} {
	fields := make(map[string]interface{})

	if r.Temperature != nil {
		fields["temperature"] = *r.Temperature
	}
	if r.Humidity != nil {
		fields["humidity"] = *r.Humidity
	}
	if r.PM25 != nil {
		fields["pm25"] = *r.PM25
	}
	if r.CO2 != nil {
		fields["co2"] = *r.CO2
	}
	if r.VOCIndex != nil {
		fields["voc_index"] = *r.VOCIndex
	}
	if r.IsDetected != nil {
		fields["is_detected"] = *r.IsDetected
	}
	if r.IsOpen != nil {
		fields["is_open"] = *r.IsOpen
	}
	if r.BatteryPercentage != nil {
		fields["battery_percentage"] = *r.BatteryPercentage
	}
	if r.IsOn != nil {
		fields["is_on"] = *r.IsOn
	}
	if r.Brightness != nil {
		fields["brightness"] = *r.Brightness
	}
	if r.ColorTemperature != nil {
		fields["color_temperature"] = *r.ColorTemperature
	}
	if r.ColorHue != nil {
		fields["color_hue"] = *r.ColorHue
	}
	if r.ColorSaturation != nil {
		fields["color_saturation"] = *r.ColorSaturation
	}
	if r.FanMode != "" {
		fields["fan_mode"] = r.FanMode
	}
	if r.MotorState != nil {
		fields["motor_state"] = *r.MotorState
	}
	if r.MotorRuntime != nil {
		fields["motor_runtime"] = *r.MotorRuntime
	}
	if r.FilterAlarm != nil {
		fields["filter_alarm"] = *r.FilterAlarm
	}
	if r.FilterElapsedTime != nil {
		fields["filter_elapsed_time"] = *r.FilterElapsedTime
	}
	if r.FilterLifetime != nil {
		fields["filter_lifetime"] = *r.FilterLifetime
	}
	if r.Power != nil {
		fields["power"] = *r.Power
	}
	if r.Current != nil {
		fields["current"] = *r.Current
	}
	if r.Voltage != nil {
		fields["voltage"] = *r.Voltage
	}
	if r.EnergyTotal != nil {
		fields["energy_total"] = *r.EnergyTotal
	}

	return fields
}
