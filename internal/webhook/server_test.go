package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/botlink-core/internal/infrastructure/config"
	"github.com/nerrad567/botlink-core/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, registry *Registry) *Server {
	t.Helper()
	cfg := config.WebhookConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    0,
		Path:    "/events",
	}
	s, err := New(cfg, registry, logging.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func postEvent(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleEvent(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("response body: %v", err)
	}
	msg, _ := out["message"].(string)
	return msg
}

func TestServer_AppliedEvent(t *testing.T) {
	registry := NewRegistry()
	h := &stubHandler{}
	if err := registry.Register("aa:bb:cc:dd:ee:ff", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s := newTestServer(t, registry)

	rec := postEvent(s, `{
		"eventType": "changeReport",
		"eventVersion": "1",
		"context": {
			"deviceMac": "AABBCCDDEEFF",
			"detectionState": 1,
			"battery": 90
		}
	}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "applied" {
		t.Errorf("message = %q, want %q", msg, "applied")
	}
	if len(h.applied) != 1 {
		t.Fatalf("handler got %d events, want 1", len(h.applied))
	}
	if h.applied[0]["detectionState"] != float64(1) {
		t.Errorf("payload = %v, want detectionState 1", h.applied[0])
	}
}

func TestServer_UnregisteredDeviceIgnored(t *testing.T) {
	s := newTestServer(t, NewRegistry())

	rec := postEvent(s, `{"context": {"deviceMac": "aa:bb:cc:dd:ee:ff"}}`)

	// 200, not an error status: the sender must not retry-storm addresses
	// this bridge does not handle.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "ignored" {
		t.Errorf("message = %q, want %q", msg, "ignored")
	}
}

func TestServer_HandlerRejectionConsumed(t *testing.T) {
	registry := NewRegistry()
	h := &stubHandler{err: errors.New("malformed values")}
	if err := registry.Register("aa:bb:cc:dd:ee:ff", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s := newTestServer(t, registry)

	rec := postEvent(s, `{"context": {"deviceMac": "aa:bb:cc:dd:ee:ff", "battery": "lots"}}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "dropped" {
		t.Errorf("message = %q, want %q", msg, "dropped")
	}
}

func TestServer_MalformedBody(t *testing.T) {
	s := newTestServer(t, NewRegistry())

	rec := postEvent(s, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_MissingDeviceMac(t *testing.T) {
	s := newTestServer(t, NewRegistry())

	rec := postEvent(s, `{"eventType": "changeReport", "context": {"battery": 50}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_BadDeviceAddress(t *testing.T) {
	s := newTestServer(t, NewRegistry())

	rec := postEvent(s, `{"context": {"deviceMac": "not-a-mac"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_StartAndClose(t *testing.T) {
	registry := NewRegistry()
	h := &stubHandler{}
	if err := registry.Register("aa:bb:cc:dd:ee:ff", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s := newTestServer(t, registry)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Close on an already-closed server is fine too.
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
