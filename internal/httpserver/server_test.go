package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/presence/internal/domain"
	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
)

var scanAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var scanLines = []string{
	"+;eth0;IPv4;Zeta Printer;_ipp._tcp;local",
	"=;eth0;IPv4;Zeta Printer;_ipp._tcp;local;zeta.local;192.168.1.30;631;\"ty=Printer\"",
	"=;eth0;IPv4;Alpha;_http._tcp;local;alpha.local;192.168.1.10;80;",
	"=;eth0;IPv4;broken",
}

type fakeRescanner struct {
	calls int
	err   error
}

func (f *fakeRescanner) Trigger() error {
	f.calls++
	if f.calls > 1 {
		return f.err
	}
	return nil
}

func newTestDeps(idx *index.MemoryIndex, rescan deps.Rescanner) deps.Deps {
	return deps.Deps{
		Logger:       logger.New("error", false),
		StartTime:    scanAt.Add(-time.Minute),
		Version:      "test",
		TimeNow:      func() time.Time { return scanAt },
		MemoryIndex:  idx,
		Scanner:      "file",
		ScanInterval: 5 * time.Minute,
		Rescan:       rescan,
		RescanBurst:  10,
		RescanPerMin: 10,
	}
}

func publish(idx *index.MemoryIndex) *domain.Snapshot {
	snap := domain.NewSnapshot("file", scanAt.Add(-time.Second), scanAt, len(scanLines), domain.Aggregate(scanLines))
	idx.Replace(snap)
	return snap
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	h := NewRouter(logger.NewNop(), newTestDeps(index.NewMemoryIndex(), nil))

	rec, body := do(t, h, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" || body["scanner"] != "file" {
		t.Errorf("body = %v", body)
	}
	if body["uptime_seconds"] != float64(60) {
		t.Errorf("uptime_seconds = %v, want 60", body["uptime_seconds"])
	}
}

func TestReadyz(t *testing.T) {
	idx := index.NewMemoryIndex()
	h := NewRouter(logger.NewNop(), newTestDeps(idx, nil))

	rec, body := do(t, h, http.MethodGet, "/readyz")
	if rec.Code != http.StatusServiceUnavailable || body["ready"] != false {
		t.Fatalf("before scan: status = %d, body = %v", rec.Code, body)
	}

	publish(idx)

	rec, body = do(t, h, http.MethodGet, "/readyz")
	if rec.Code != http.StatusOK || body["ready"] != true {
		t.Fatalf("after scan: status = %d, body = %v", rec.Code, body)
	}
	if body["devices"] != float64(2) {
		t.Errorf("devices = %v, want 2", body["devices"])
	}
}

func TestDevicesEmpty(t *testing.T) {
	h := NewRouter(logger.NewNop(), newTestDeps(index.NewMemoryIndex(), nil))

	rec, body := do(t, h, http.MethodGet, "/api/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["message"] != "no devices found" {
		t.Errorf("message = %v", body["message"])
	}
	if devices, ok := body["devices"].([]any); !ok || len(devices) != 0 {
		t.Errorf("devices = %v, want empty list", body["devices"])
	}
}

func TestDevicesSortedByName(t *testing.T) {
	idx := index.NewMemoryIndex()
	snap := publish(idx)
	h := NewRouter(logger.NewNop(), newTestDeps(idx, nil))

	rec, body := do(t, h, http.MethodGet, "/api/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["scanId"] != snap.ID || body["count"] != float64(2) {
		t.Errorf("scanId = %v, count = %v", body["scanId"], body["count"])
	}
	if _, ok := body["message"]; ok {
		t.Errorf("unexpected message %v", body["message"])
	}

	devices := body["devices"].([]any)
	first := devices[0].(map[string]any)
	second := devices[1].(map[string]any)
	if first["id"] != "alpha.local" || second["id"] != "zeta.local" {
		t.Errorf("order = %v, %v, want alpha.local, zeta.local", first["id"], second["id"])
	}
	if second["name"] != "Zeta Printer" {
		t.Errorf("name = %v", second["name"])
	}
	if ports, ok := second["portList"].([]any); !ok || len(ports) != 1 {
		t.Errorf("portList = %v, want one port", second["portList"])
	}
	if second["lastSeen"] == nil {
		t.Error("lastSeen missing")
	}
}

func TestDevice(t *testing.T) {
	idx := index.NewMemoryIndex()
	publish(idx)
	h := NewRouter(logger.NewNop(), newTestDeps(idx, nil))

	rec, body := do(t, h, http.MethodGet, "/api/devices/alpha.local")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["id"] != "alpha.local" || body["localAddress"] != "alpha.local" {
		t.Errorf("body = %v", body)
	}

	rec, body = do(t, h, http.MethodGet, "/api/devices/ghost.local")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown: status = %d, want 404", rec.Code)
	}
	if body["error"] != "device not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestInterfacesAndDiagnostics(t *testing.T) {
	idx := index.NewMemoryIndex()
	publish(idx)
	h := NewRouter(logger.NewNop(), newTestDeps(idx, nil))

	_, body := do(t, h, http.MethodGet, "/api/interfaces")
	ifaces := body["interfaces"].(map[string]any)
	if addrs, ok := ifaces["eth0"].([]any); !ok || len(addrs) != 2 {
		t.Errorf("interfaces[eth0] = %v, want 2 addresses", ifaces["eth0"])
	}

	_, body = do(t, h, http.MethodGet, "/api/diagnostics")
	diags := body["diagnostics"].([]any)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want 1", diags)
	}
	if kind := diags[0].(map[string]any)["kind"]; kind != string(domain.KindMalformedLine) {
		t.Errorf("kind = %v", kind)
	}
	if body["lines"] != float64(len(scanLines)) {
		t.Errorf("lines = %v, want %d", body["lines"], len(scanLines))
	}
}

func TestRescan(t *testing.T) {
	rescanner := &fakeRescanner{err: errors.New("scan already queued")}
	h := NewRouter(logger.NewNop(), newTestDeps(index.NewMemoryIndex(), rescanner))

	rec, body := do(t, h, http.MethodPost, "/api/rescan")
	if rec.Code != http.StatusAccepted || body["status"] != "queued" {
		t.Fatalf("first: status = %d, body = %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodPost, "/api/rescan")
	if rec.Code != http.StatusTooManyRequests || body["status"] != "already queued" {
		t.Fatalf("second: status = %d, body = %v", rec.Code, body)
	}
}

func TestRescanWithoutRunner(t *testing.T) {
	h := NewRouter(logger.NewNop(), newTestDeps(index.NewMemoryIndex(), nil))

	rec, _ := do(t, h, http.MethodPost, "/api/rescan")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestInfra(t *testing.T) {
	idx := index.NewMemoryIndex()
	h := NewRouter(logger.NewNop(), newTestDeps(idx, nil))

	_, body := do(t, h, http.MethodGet, "/infra")
	if body["status"] != "critical" {
		t.Errorf("before scan: status = %v, want critical", body["status"])
	}

	publish(idx)
	_, body = do(t, h, http.MethodGet, "/infra")
	if body["status"] != "ok" {
		t.Errorf("after scan: status = %v, want ok", body["status"])
	}
	components := body["components"].(map[string]any)
	if redis := components["redis"].(map[string]any); redis["mode"] != "disabled" {
		t.Errorf("redis mode = %v, want disabled", redis["mode"])
	}

	idx.RecordFailure(scanAt.Add(time.Minute), errors.New("avahi-browse: exit status 1"))
	_, body = do(t, h, http.MethodGet, "/infra")
	if body["status"] != "degraded" {
		t.Errorf("after failure: status = %v, want degraded", body["status"])
	}
}

func TestAllowedCIDRS(t *testing.T) {
	d := newTestDeps(index.NewMemoryIndex(), nil)
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	h := NewRouter(logger.NewNop(), d)

	// httptest requests come from 192.0.2.1
	if rec, _ := do(t, h, http.MethodGet, "/api/devices"); rec.Code != http.StatusForbidden {
		t.Errorf("/api/devices status = %d, want 403", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}
}
