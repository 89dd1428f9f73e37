package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/dirigera-bridge/internal/hub"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ===== Classification Tests =====

func TestClassify(t *testing.T) {
	tests := []struct {
		hubType string
		want    DeviceType
		known   bool
	}{
		{"environmentSensor", TypeEnvironmentSensor, true},
		{"motionSensor", TypeMotionSensor, true},
		{"openCloseSensor", TypeOpenCloseSensor, true},
		{"light", TypeLight, true},
		{"airPurifier", TypeAirPurifier, true},
		{"outlet", TypeOutlet, true},
		{"lightController", TypeController, true},
		{"blindsController", TypeController, true},
		{"shortcutController", TypeController, true},
		{"waterSensor", DeviceType("waterSensor"), false},
		{"", DeviceType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.hubType, func(t *testing.T) {
			got, known := classify(tt.hubType)
			if got != tt.want || known != tt.known {
				t.Errorf("classify(%q) = (%v, %v), want (%v, %v)",
					tt.hubType, got, known, tt.want, tt.known)
			}
		})
	}
}

// ===== Normalisation Tests =====

func TestNormalize_EnvironmentSensor(t *testing.T) {
	device := hub.Device{
		ID:         "env-1",
		DeviceType: "environmentSensor",
		Room:       &hub.Room{ID: "r1", Name: "Bedroom"},
		Attributes: hub.Attributes{
			CustomName:         "Bedroom sensor",
			CurrentTemperature: f64Ptr(21.5),
			CurrentRH:          intPtr(45),
			CurrentPM25:        intPtr(12),
			CurrentCO2:         intPtr(600),
			VOCIndex:           intPtr(120),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if rec.DeviceID != "env-1" {
		t.Errorf("DeviceID = %q, want env-1", rec.DeviceID)
	}
	if rec.DeviceName != "Bedroom sensor" {
		t.Errorf("DeviceName = %q, want Bedroom sensor", rec.DeviceName)
	}
	if rec.DeviceType != "environment_sensor" {
		t.Errorf("DeviceType = %q, want environment_sensor", rec.DeviceType)
	}
	if rec.Room != "Bedroom" {
		t.Errorf("Room = %q, want Bedroom", rec.Room)
	}
	if !rec.Timestamp.Equal(testTime) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, testTime)
	}
	if rec.Temperature == nil || *rec.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", rec.Temperature)
	}
	if rec.Humidity == nil || *rec.Humidity != 45 {
		t.Errorf("Humidity = %v, want 45", rec.Humidity)
	}
	if rec.PM25 == nil || *rec.PM25 != 12 {
		t.Errorf("PM25 = %v, want 12", rec.PM25)
	}
	if rec.CO2 == nil || *rec.CO2 != 600 {
		t.Errorf("CO2 = %v, want 600", rec.CO2)
	}
	if rec.VOCIndex == nil || *rec.VOCIndex != 120 {
		t.Errorf("VOCIndex = %v, want 120", rec.VOCIndex)
	}
}

func TestNormalize_MotionSensor(t *testing.T) {
	device := hub.Device{
		ID:         "motion-1",
		DeviceType: "motionSensor",
		Attributes: hub.Attributes{
			IsDetected:        bPtr(true),
			BatteryPercentage: intPtr(85),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.DeviceType != "motion_sensor" {
		t.Errorf("DeviceType = %q, want motion_sensor", rec.DeviceType)
	}
	if rec.IsDetected == nil || !*rec.IsDetected {
		t.Errorf("IsDetected = %v, want true", rec.IsDetected)
	}
	if rec.BatteryPercentage == nil || *rec.BatteryPercentage != 85 {
		t.Errorf("BatteryPercentage = %v, want 85", rec.BatteryPercentage)
	}
	if rec.Room != "" {
		t.Errorf("Room = %q, want empty for device without room", rec.Room)
	}
}

func TestNormalize_OpenCloseSensor(t *testing.T) {
	device := hub.Device{
		ID:         "door-1",
		DeviceType: "openCloseSensor",
		Attributes: hub.Attributes{
			IsOpen:            bPtr(false),
			BatteryPercentage: intPtr(92),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.DeviceType != "open_close_sensor" {
		t.Errorf("DeviceType = %q, want open_close_sensor", rec.DeviceType)
	}
	if rec.IsOpen == nil || *rec.IsOpen {
		t.Errorf("IsOpen = %v, want false", rec.IsOpen)
	}
}

func TestNormalize_Light(t *testing.T) {
	device := hub.Device{
		ID:         "light-1",
		DeviceType: "light",
		Attributes: hub.Attributes{
			IsOn:             bPtr(true),
			LightLevel:       f64Ptr(80),
			ColorTemperature: intPtr(2700),
			ColorHue:         f64Ptr(120.5),
			ColorSaturation:  f64Ptr(0.45),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.IsOn == nil || !*rec.IsOn {
		t.Errorf("IsOn = %v, want true", rec.IsOn)
	}
	if rec.Brightness == nil || *rec.Brightness != 80 {
		t.Errorf("Brightness = %v, want 80", rec.Brightness)
	}
	if rec.ColorTemperature == nil || *rec.ColorTemperature != 2700 {
		t.Errorf("ColorTemperature = %v, want 2700", rec.ColorTemperature)
	}
	if rec.ColorHue == nil || *rec.ColorHue != 120.5 {
		t.Errorf("ColorHue = %v, want 120.5", rec.ColorHue)
	}
	if rec.ColorSaturation == nil || *rec.ColorSaturation != 0.45 {
		t.Errorf("ColorSaturation = %v, want 0.45", rec.ColorSaturation)
	}
}

func TestNormalize_AirPurifier(t *testing.T) {
	device := hub.Device{
		ID:         "purifier-1",
		DeviceType: "airPurifier",
		Attributes: hub.Attributes{
			FanMode:           "auto",
			MotorState:        intPtr(25),
			MotorRuntime:      intPtr(14300),
			CurrentPM25:       intPtr(8),
			FilterAlarmStatus: bPtr(false),
			FilterElapsedTime: intPtr(4100),
			FilterLifetime:    intPtr(259200),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.DeviceType != "air_purifier" {
		t.Errorf("DeviceType = %q, want air_purifier", rec.DeviceType)
	}
	if rec.FanMode != "auto" {
		t.Errorf("FanMode = %q, want auto", rec.FanMode)
	}
	if rec.MotorState == nil || *rec.MotorState != 25 {
		t.Errorf("MotorState = %v, want 25", rec.MotorState)
	}
	if rec.PM25 == nil || *rec.PM25 != 8 {
		t.Errorf("PM25 = %v, want 8", rec.PM25)
	}
	if rec.FilterAlarm == nil || *rec.FilterAlarm {
		t.Errorf("FilterAlarm = %v, want false", rec.FilterAlarm)
	}
	if rec.FilterElapsedTime == nil || *rec.FilterElapsedTime != 4100 {
		t.Errorf("FilterElapsedTime = %v, want 4100", rec.FilterElapsedTime)
	}
	if rec.FilterLifetime == nil || *rec.FilterLifetime != 259200 {
		t.Errorf("FilterLifetime = %v, want 259200", rec.FilterLifetime)
	}
}

func TestNormalize_Outlet(t *testing.T) {
	device := hub.Device{
		ID:         "outlet-1",
		DeviceType: "outlet",
		Attributes: hub.Attributes{
			IsOn:                bPtr(true),
			CurrentActivePower:  f64Ptr(42.5),
			CurrentAmps:         f64Ptr(0.19),
			CurrentVoltage:      f64Ptr(230),
			TotalEnergyConsumed: f64Ptr(12.34),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.Power == nil || *rec.Power != 42.5 {
		t.Errorf("Power = %v, want 42.5", rec.Power)
	}
	if rec.Current == nil || *rec.Current != 0.19 {
		t.Errorf("Current = %v, want 0.19", rec.Current)
	}
	if rec.Voltage == nil || *rec.Voltage != 230 {
		t.Errorf("Voltage = %v, want 230", rec.Voltage)
	}
	if rec.EnergyTotal == nil || *rec.EnergyTotal != 12.34 {
		t.Errorf("EnergyTotal = %v, want 12.34", rec.EnergyTotal)
	}
}

func TestNormalize_UnknownTypeYieldsMinimalRecord(t *testing.T) {
	device := hub.Device{
		ID:         "mystery-1",
		DeviceType: "waterSensor",
		Room:       &hub.Room{ID: "r2", Name: "Bathroom"},
		Attributes: hub.Attributes{
			CustomName:         "Leak detector",
			CurrentTemperature: f64Ptr(19), // must not leak into the record
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v, unknown types must not error", err)
	}
	if rec.DeviceID != "mystery-1" {
		t.Errorf("DeviceID = %q, want mystery-1", rec.DeviceID)
	}
	if rec.DeviceType != "waterSensor" {
		t.Errorf("DeviceType = %q, want raw tag waterSensor", rec.DeviceType)
	}
	if rec.DeviceName != "Leak detector" {
		t.Errorf("DeviceName = %q, want Leak detector", rec.DeviceName)
	}
	if rec.Room != "Bathroom" {
		t.Errorf("Room = %q, want Bathroom", rec.Room)
	}
	if rec.Temperature != nil {
		t.Errorf("Temperature = %v, want nil on minimal record", rec.Temperature)
	}
}

func TestNormalize_MissingIdentity(t *testing.T) {
	device := hub.Device{
		DeviceType: "light",
		Attributes: hub.Attributes{IsOn: bPtr(true)},
	}

	_, err := Normalize(device, testTime)
	if !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("error = %v, want ErrMissingIdentity", err)
	}
}

func TestNormalize_IgnoresAttributesOfOtherClasses(t *testing.T) {
	// Hub firmware sometimes reports attribute keys that make no sense for
	// the device class; they must not bleed into the record.
	device := hub.Device{
		ID:         "env-2",
		DeviceType: "environmentSensor",
		Attributes: hub.Attributes{
			CurrentTemperature: f64Ptr(20),
			IsOn:               bPtr(true),
			LightLevel:         f64Ptr(50),
		},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.IsOn != nil {
		t.Errorf("IsOn = %v, want nil on an environment sensor", rec.IsOn)
	}
	if rec.Brightness != nil {
		t.Errorf("Brightness = %v, want nil on an environment sensor", rec.Brightness)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	temp := 21.5
	humidity := 45
	device := hub.Device{
		ID:         "env-7",
		DeviceType: "environmentSensor",
		Room:       &hub.Room{ID: "r1", Name: "Bedroom"},
		Attributes: hub.Attributes{
			CustomName:         "Bedroom sensor",
			CurrentTemperature: &temp,
			CurrentRH:          &humidity,
		},
	}

	first, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	second, err := Normalize(device, testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if !first.StateEquals(&second) {
		t.Error("normalising the same device twice produced differing state")
	}
	if first.Timestamp.Equal(second.Timestamp) {
		t.Error("timestamps should carry the observation time, not be shared")
	}
}

// ===== Controller Identity Tests =====

func TestCanonicalDeviceID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		devType DeviceType
		want    string
	}{
		{"controller sub-unit 1", "abcd-1234_1", TypeController, "abcd-1234"},
		{"controller sub-unit 2", "abcd-1234_2", TypeController, "abcd-1234"},
		{"controller without suffix", "abcd-1234", TypeController, "abcd-1234"},
		{"controller non-numeric suffix", "abcd_rev", TypeController, "abcd_rev"},
		{"controller underscore only prefix", "_1", TypeController, "_1"},
		{"non-controller keeps suffix", "abcd-1234_1", TypeLight, "abcd-1234_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonicalDeviceID(tt.id, tt.devType); got != tt.want {
				t.Errorf("canonicalDeviceID(%q, %v) = %q, want %q", tt.id, tt.devType, got, tt.want)
			}
		})
	}
}

func TestNormalize_ControllerSubUnitsShareIdentity(t *testing.T) {
	sub1 := hub.Device{
		ID:         "ctrl-9_1",
		DeviceType: "lightController",
		Attributes: hub.Attributes{BatteryPercentage: intPtr(74)},
	}
	sub2 := hub.Device{
		ID:         "ctrl-9_2",
		DeviceType: "lightController",
		Attributes: hub.Attributes{BatteryPercentage: intPtr(74)},
	}

	rec1, err := Normalize(sub1, testTime)
	if err != nil {
		t.Fatalf("Normalize(sub1) error = %v", err)
	}
	rec2, err := Normalize(sub2, testTime)
	if err != nil {
		t.Fatalf("Normalize(sub2) error = %v", err)
	}

	if rec1.DeviceID != "ctrl-9" || rec2.DeviceID != "ctrl-9" {
		t.Errorf("sub-unit IDs = %q, %q; want both ctrl-9", rec1.DeviceID, rec2.DeviceID)
	}
	if !rec1.StateEquals(&rec2) {
		t.Error("sub-units with identical state must compare equal after canonicalisation")
	}
}

// ===== Topic Tests =====

func TestTopicSuffix(t *testing.T) {
	tests := []struct {
		devType DeviceType
		want    string
	}{
		{TypeEnvironmentSensor, "sensor"},
		{TypeMotionSensor, "motion"},
		{TypeOpenCloseSensor, "door"},
		{TypeLight, "light"},
		{TypeAirPurifier, "purifier"},
		{TypeOutlet, "outlet"},
		{TypeController, "controller"},
		{DeviceType("waterSensor"), "unknown"},
	}

	for _, tt := range tests {
		if got := TopicSuffix(tt.devType); got != tt.want {
			t.Errorf("TopicSuffix(%v) = %q, want %q", tt.devType, got, tt.want)
		}
	}
}

func TestStateTopic(t *testing.T) {
	got := StateTopic("dirigera", TypeOpenCloseSensor, "door-1")
	want := "dirigera/door/door-1"
	if got != want {
		t.Errorf("StateTopic() = %q, want %q", got, want)
	}
}

// ===== Aliasing Tests =====

func TestNormalize_RecordDoesNotAliasDevice(t *testing.T) {
	temp := 21.5
	device := hub.Device{
		ID:         "env-3",
		DeviceType: "environmentSensor",
		Attributes: hub.Attributes{CurrentTemperature: &temp},
	}

	rec, err := Normalize(device, testTime)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	temp = 99.9 // mutate the source after normalisation
	if *rec.Temperature != 21.5 {
		t.Errorf("Temperature = %v after source mutation, want 21.5", *rec.Temperature)
	}
}
