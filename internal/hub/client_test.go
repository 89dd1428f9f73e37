package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient wires a Client directly to an httptest server, bypassing
// host/port construction.
func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		baseURL: srv.URL + apiBasePath,
		token:   "test-token",
		http:    srv.Client(),
	}
}

// ===== ListDevices Tests =====

func TestListDevices(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v1/devices" {
			t.Errorf("path = %s, want /v1/devices", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "dev-1",
				"type": "sensor",
				"deviceType": "environmentSensor",
				"isReachable": true,
				"room": {"id": "room-1", "name": "Bedroom"},
				"attributes": {
					"customName": "Bedroom sensor",
					"currentTemperature": 21.5,
					"currentRH": 45,
					"vocIndex": 120,
					"someFutureAttribute": "ignored"
				}
			},
			{
				"id": "dev-2",
				"type": "light",
				"deviceType": "light",
				"isReachable": false,
				"attributes": {"isOn": false, "lightLevel": 80}
			}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	devices, err := client.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	first := devices[0]
	if first.ID != "dev-1" {
		t.Errorf("ID = %q, want dev-1", first.ID)
	}
	if first.DeviceType != "environmentSensor" {
		t.Errorf("DeviceType = %q, want environmentSensor", first.DeviceType)
	}
	if first.Room == nil || first.Room.Name != "Bedroom" {
		t.Errorf("Room = %+v, want name Bedroom", first.Room)
	}
	if first.Attributes.CurrentTemperature == nil || *first.Attributes.CurrentTemperature != 21.5 {
		t.Errorf("CurrentTemperature = %v, want 21.5", first.Attributes.CurrentTemperature)
	}
	if first.Attributes.CurrentRH == nil || *first.Attributes.CurrentRH != 45 {
		t.Errorf("CurrentRH = %v, want 45", first.Attributes.CurrentRH)
	}

	second := devices[1]
	if second.Room != nil {
		t.Errorf("Room = %+v, want nil for device without room", second.Room)
	}
	if second.Attributes.IsOn == nil || *second.Attributes.IsOn != false {
		t.Errorf("IsOn = %v, want false", second.Attributes.IsOn)
	}
	// A zero reading must stay distinguishable from an absent one.
	if second.Attributes.CurrentTemperature != nil {
		t.Errorf("CurrentTemperature = %v, want nil when absent", second.Attributes.CurrentTemperature)
	}
}

func TestListDevices_AuthRejected(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.ListDevices(context.Background())
	if !errors.Is(err, ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestListDevices_ServerError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.ListDevices(context.Background())
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("error = %v, want ErrBadResponse", err)
	}
}

func TestListDevices_Unreachable(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	client := newTestClient(srv)
	srv.Close() // nothing listening any more

	_, err := client.ListDevices(context.Background())
	if !errors.Is(err, ErrHubUnreachable) {
		t.Errorf("error = %v, want ErrHubUnreachable", err)
	}
}

// ===== GetDevice Tests =====

func TestGetDevice(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/devices/dev-42" {
			t.Errorf("path = %s, want /v1/devices/dev-42", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Device{
			ID:         "dev-42",
			Type:       "sensor",
			DeviceType: "motionSensor",
			Attributes: Attributes{
				CustomName: "Hallway motion",
				IsDetected: boolPtr(true),
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	device, err := client.GetDevice(context.Background(), "dev-42")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if device.ID != "dev-42" {
		t.Errorf("ID = %q, want dev-42", device.ID)
	}
	if device.Attributes.IsDetected == nil || !*device.Attributes.IsDetected {
		t.Errorf("IsDetected = %v, want true", device.Attributes.IsDetected)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.GetDevice(context.Background(), "gone")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestGetDevice_EmptyID(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("server should not be called for an empty device id")
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.GetDevice(context.Background(), "")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestGetDevice_MalformedBody(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.GetDevice(context.Background(), "dev-1")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("error = %v, want ErrBadResponse", err)
	}
}

// ===== HealthCheck Tests =====

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(srv)
	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() with cancelled context should fail")
	}
}

func boolPtr(v bool) *bool { return &v }
