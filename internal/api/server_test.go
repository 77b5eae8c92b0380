package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openlux/luxd/internal/device"
	"github.com/openlux/luxd/internal/infrastructure/config"
	"github.com/openlux/luxd/internal/infrastructure/logging"
	"github.com/openlux/luxd/internal/preferences"
	"github.com/openlux/luxd/internal/universe"
)

// fakePort implements device.Port for handler tests.
type fakePort struct {
	id       int
	uniqueID string
	universe *universe.Universe
}

func (p *fakePort) ID() int { return p.id }

func (p *fakePort) UniqueID() string { return p.uniqueID }

func (p *fakePort) Capability() device.PortCapability { return device.CapabilityOutput }

func (p *fakePort) Universe() *universe.Universe { return p.universe }

func (p *fakePort) SetUniverse(u *universe.Universe) { p.universe = u }

// fakeDevice implements device.Device for handler tests.
type fakeDevice struct {
	uniqueID string
	ports    []*fakePort
}

func (d *fakeDevice) UniqueID() string { return d.uniqueID }
func (d *fakeDevice) Name() string     { return "Test " + d.uniqueID }
func (d *fakeDevice) PluginID() int    { return 1 }

func (d *fakeDevice) Ports() []device.Port {
	out := make([]device.Port, len(d.ports))
	for i, p := range d.ports {
		out[i] = p
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *device.Manager, *universe.Store) {
	t.Helper()

	universes := universe.NewStore(nil)
	manager := device.NewManager(preferences.NewMemoryStore(), universes)

	server, err := New(Deps{
		Config:    config.APIConfig{Host: "127.0.0.1", Port: 9090},
		Logger:    logging.Default(),
		Manager:   manager,
		Universes: universes,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return server, manager, universes
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	t.Run("missing logger", func(t *testing.T) {
		_, err := New(Deps{Manager: &device.Manager{}, Universes: universe.NewStore(nil)})
		if err == nil {
			t.Error("New() error = nil, want error")
		}
	})

	t.Run("missing manager", func(t *testing.T) {
		_, err := New(Deps{Logger: logging.Default(), Universes: universe.NewStore(nil)})
		if err == nil {
			t.Error("New() error = nil, want error")
		}
	})
}

func TestHandleHealth(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server.buildRouter(), http.MethodGet, "/api/v1/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("response = %v", resp)
	}
}

func TestHandleListDevices(t *testing.T) {
	server, manager, _ := newTestServer(t)
	router := server.buildRouter()
	ctx := context.Background()

	t.Run("empty registry", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Count != 0 {
			t.Errorf("count = %d, want 0", resp.Count)
		}
	})

	t.Run("with devices", func(t *testing.T) {
		if err := manager.Register(ctx, &fakeDevice{uniqueID: "usb-1"}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if err := manager.Register(ctx, &fakeDevice{uniqueID: "usb-2"}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/", "")

		var resp struct {
			Devices []device.Info `json:"devices"`
			Count   int           `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Count != 2 {
			t.Fatalf("count = %d, want 2", resp.Count)
		}
		if resp.Devices[0].Alias != 1 || resp.Devices[1].Alias != 2 {
			t.Errorf("aliases = %d, %d, want 1, 2", resp.Devices[0].Alias, resp.Devices[1].Alias)
		}
	})
}

func TestHandleGetDevice(t *testing.T) {
	server, manager, _ := newTestServer(t)
	router := server.buildRouter()

	if err := manager.Register(context.Background(), &fakeDevice{uniqueID: "usb-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var info device.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if info.UniqueID != "usb-1" {
			t.Errorf("unique_id = %q, want %q", info.UniqueID, "usb-1")
		}
	})

	t.Run("unknown alias", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/99", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("malformed alias", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleGetDeviceByID(t *testing.T) {
	server, manager, _ := newTestServer(t)
	router := server.buildRouter()
	ctx := context.Background()

	d := &fakeDevice{uniqueID: "usb-1"}
	if err := manager.Register(ctx, d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("connected", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/by-id/usb-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Alias     int  `json:"alias"`
			Connected bool `json:"connected"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Alias != 1 || !resp.Connected {
			t.Errorf("response = %+v, want alias 1 connected", resp)
		}
	})

	t.Run("disconnected", func(t *testing.T) {
		if err := manager.Unregister(ctx, d); err != nil {
			t.Fatalf("Unregister() error = %v", err)
		}

		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/by-id/usb-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Alias     int  `json:"alias"`
			Connected bool `json:"connected"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Alias != 1 || resp.Connected {
			t.Errorf("response = %+v, want alias 1 disconnected", resp)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/devices/by-id/ghost", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestHandlePatchPort(t *testing.T) {
	server, manager, _ := newTestServer(t)
	router := server.buildRouter()

	d := &fakeDevice{uniqueID: "usb-1", ports: []*fakePort{{id: 0, uniqueID: "usb-1-out-0"}}}
	if err := manager.Register(context.Background(), d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("patch", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/api/v1/devices/1/ports/0/patch", `{"universe":5}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var info device.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(info.Ports) != 1 || info.Ports[0].Universe != 5 {
			t.Errorf("ports = %+v, want port 0 on universe 5", info.Ports)
		}
	})

	t.Run("reserved universe", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/api/v1/devices/1/ports/0/patch", `{"universe":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown port", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/api/v1/devices/1/ports/9/patch", `{"universe":5}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPut, "/api/v1/devices/1/ports/0/patch", `not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unpatch", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/devices/1/ports/0/patch", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if d.ports[0].Universe() != nil {
			t.Error("port still patched after unpatch")
		}
	})
}

func TestHandleUniverses(t *testing.T) {
	server, _, universes := newTestServer(t)
	router := server.buildRouter()
	ctx := context.Background()

	if _, err := universes.GetOrCreate(ctx, 5); err != nil {
		t.Fatalf("GetOrCreate(5) error = %v", err)
	}

	t.Run("list", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/universes/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Universes []universe.Info `json:"universes"`
			Count     int             `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Count != 1 || resp.Universes[0].ID != 5 {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/universes/5", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var info universe.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if info.Name != "Universe 5" || info.MergeMode != universe.MergeHTP {
			t.Errorf("info = %+v", info)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/universes/42", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/api/v1/universes/5",
			`{"name":"Front Truss","merge_mode":"ltp"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var info universe.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if info.Name != "Front Truss" || info.MergeMode != universe.MergeLTP {
			t.Errorf("info = %+v", info)
		}
	})

	t.Run("update invalid merge mode", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/api/v1/universes/5", `{"merge_mode":"average"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("update nothing", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, "/api/v1/universes/5", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleStats(t *testing.T) {
	server, manager, universes := newTestServer(t)
	router := server.buildRouter()
	ctx := context.Background()

	if err := manager.Register(ctx, &fakeDevice{uniqueID: "usb-1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := universes.GetOrCreate(ctx, 1); err != nil {
		t.Fatalf("GetOrCreate(1) error = %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		DeviceCount   int `json:"device_count"`
		UniverseCount int `json:"universe_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp.DeviceCount != 1 || resp.UniverseCount != 1 {
		t.Errorf("stats = %+v, want 1/1", resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _, _ := newTestServer(t)
	router := server.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/devices/", nil)
	req.Header.Set("Origin", "http://console.local")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://console.local" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	server, _, _ := newTestServer(t)
	router := server.buildRouter()

	t.Run("generated", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header not set")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("X-Request-ID", "test-id-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "test-id-123" {
			t.Errorf("X-Request-ID = %q, want %q", got, "test-id-123")
		}
	})
}
