package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func testRouter(logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.Use(RequestMetricsMiddleware("mw-test"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func serve(r *gin.Engine, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	r := testRouter(logger)

	cases := []struct {
		path  string
		level string
		route string
	}{
		{path: "/health", level: "debug", route: "/health"},
		{path: "/boom", level: "error", route: "/boom"},
		{path: "/nope", level: "warn", route: "unmatched"},
	}
	for _, tc := range cases {
		buf.Reset()
		serve(r, tc.path)
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s: decode log entry %q: %v", tc.path, buf.String(), err)
		}
		if entry["level"] != tc.level || entry["path"] != tc.route {
			t.Fatalf("%s: unexpected entry: %#v", tc.path, entry)
		}
	}
}

func TestRequestMetricsCollapsesUnmatchedPaths(t *testing.T) {
	r := testRouter(zerolog.Nop())
	counter := httpRequests.WithLabelValues("mw-test", http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)
	serve(r, "/a")
	serve(r, "/b")
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 unmatched requests, got %v", got)
	}
}
