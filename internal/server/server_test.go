package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeffypooo/hostwatch/internal/metrics"
	"github.com/jeffypooo/hostwatch/internal/recorder"
)

type stubSampler struct{}

func (stubSampler) Sample() (metrics.ResourceSnapshot, error) {
	return metrics.ResourceSnapshot{
		Timestamp: time.Now(),
		Cpu:       metrics.CpuInfo{Percent: 25},
		Memory:    metrics.MemoryInfo{Percent: 60},
		Gpu:       metrics.GpuInfo{Available: false},
	}, nil
}

func newTestServer(interval, limit time.Duration) *Server {
	sampler := stubSampler{}
	rec := recorder.New(sampler, nil, interval, limit)
	return New(sampler, rec, metrics.NewProcessTracker(), 10)
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestLiveResources(t *testing.T) {
	s := newTestServer(10*time.Millisecond, time.Second)

	rec := do(t, s, http.MethodGet, "/api/resources")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	body := decode(t, rec)
	if body["recording"] != false {
		t.Fatalf("expected recording=false, got %v", body["recording"])
	}
	cpu, ok := body["cpu"].(map[string]any)
	if !ok || cpu["percent"] != 25.0 {
		t.Fatalf("cpu block missing or wrong: %v", body["cpu"])
	}
}

func TestRecordingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(5*time.Millisecond, time.Second)

	rec := do(t, s, http.MethodPost, "/api/start-recording")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status: %d body=%s", rec.Code, rec.Body.String())
	}
	if body := decode(t, rec); body["status"] != "started" {
		t.Fatalf("start body: %v", body)
	}

	// Second start is rejected while active.
	rec = do(t, s, http.MethodPost, "/api/start-recording")
	if rec.Code != http.StatusConflict {
		t.Fatalf("double start status: %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "already_recording" {
		t.Fatalf("double start body: %v", body)
	}

	time.Sleep(60 * time.Millisecond)

	rec = do(t, s, http.MethodGet, "/api/recording-status")
	status := decode(t, rec)
	if status["recording"] != true {
		t.Fatalf("expected active status, got %v", status)
	}
	if status["samples"].(float64) < 2 {
		t.Fatalf("expected >=2 samples, got %v", status["samples"])
	}

	rec = do(t, s, http.MethodPost, "/api/stop-recording")
	stopped := decode(t, rec)
	if stopped["status"] != "stopped" {
		t.Fatalf("stop body: %v", stopped)
	}

	// Stopping again is a no-op, not an error.
	rec = do(t, s, http.MethodPost, "/api/stop-recording")
	if rec.Code != http.StatusOK {
		t.Fatalf("idle stop status: %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "not_recording" {
		t.Fatalf("idle stop body: %v", body)
	}

	// The recorded buffer feeds both report forms.
	rec = do(t, s, http.MethodPost, "/api/generate-report")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate-report status: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("report must download as attachment, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "System Resource Report") {
		t.Fatal("report body missing title")
	}

	rec = do(t, s, http.MethodGet, "/api/report.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("report.json status: %d", rec.Code)
	}
	agg := decode(t, rec)
	if agg["samples"].(float64) < 2 {
		t.Fatalf("aggregate samples: %v", agg["samples"])
	}
}

func TestReportWithoutRecordingIsRejected(t *testing.T) {
	s := newTestServer(10*time.Millisecond, time.Second)

	rec := do(t, s, http.MethodPost, "/api/generate-report")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty buffer, got %d", rec.Code)
	}
	if body := decode(t, rec); body["error"] == nil {
		t.Fatalf("expected error message, got %v", body)
	}

	rec = do(t, s, http.MethodGet, "/api/report.json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from report.json, got %d", rec.Code)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	s := newTestServer(10*time.Millisecond, time.Second)

	rec := do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hostwatch_cpu_percent") {
		t.Fatal("exposition missing hostwatch_cpu_percent")
	}
}
