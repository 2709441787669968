package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/ethoswire/internal/observability"
	"github.com/danmuck/ethoswire/internal/testutil/testlog"
)

type fixedStats int64

func (f fixedStats) ActiveConnections() int64 { return int64(f) }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	s := New("gateway", fixedStats(2), nil, testlog.Logger(t))
	rr := get(t, s, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "gateway" {
		t.Fatalf("unexpected response body: %#v", body)
	}
}

func TestReadyReportsConnections(t *testing.T) {
	s := New("gateway", fixedStats(3), nil, testlog.Logger(t))
	rr := get(t, s, "/ready")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["active_connections"] != float64(3) {
		t.Fatalf("unexpected response body: %#v", body)
	}

	if rr := get(t, New("bare", nil, nil, testlog.Logger(t)), "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without stats, got %d", rr.Code)
	}
}

func TestMetricsExposesFrameCounters(t *testing.T) {
	observability.RecordDecode("admin-test", observability.OutcomeOK, 20)
	s := New("gateway", fixedStats(0), nil, testlog.Logger(t))
	rr := get(t, s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ethoswire_frames_decoded_total") {
		t.Fatalf("metrics output missing frame counter")
	}
}

func TestProtocolDescription(t *testing.T) {
	s := New("gateway", fixedStats(0), nil, testlog.Logger(t))
	rr := get(t, s, "/protocol")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body struct {
		Directions []DirectionInfo `json:"directions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Directions) != 2 {
		t.Fatalf("expected two directions, got %d", len(body.Directions))
	}
	c := body.Directions[0]
	if c.Name != "client" || c.MaxMessageSize != 32 || len(c.Variants) != 1 || c.Variants[0].Size != 18 {
		t.Fatalf("unexpected client description: %+v", c)
	}
	srv := body.Directions[1]
	if srv.TrailerLen != 8 || len(srv.Variants) != 2 || srv.Variants[1].Name != "error" || srv.Variants[1].Discriminant != 0xfffe {
		t.Fatalf("unexpected server description: %+v", srv)
	}
	if srv.Variants[0].Fields[0] != "u16" {
		t.Fatalf("unexpected action fields: %v", srv.Variants[0].Fields)
	}
}
