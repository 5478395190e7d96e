package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandler_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry).ObserveToolCall("get_functions", OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	NewHandler(registry, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `casmcp_tool_calls_total{outcome="ok",tool="get_functions"} 1`)
}

func TestHandler_Healthz(t *testing.T) {
	t.Run("default ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHandler(prometheus.NewRegistry(), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("details", func(t *testing.T) {
		health := func() HealthReport {
			return HealthReport{Status: "ok", Details: map[string]any{"functions": 2}}
		}

		rec := httptest.NewRecorder()
		NewHandler(prometheus.NewRegistry(), health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var report HealthReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "ok", report.Status)
		assert.InDelta(t, 2, report.Details["functions"], 0)
	})

	t.Run("unhealthy", func(t *testing.T) {
		health := func() HealthReport { return HealthReport{Status: "loading"} }

		rec := httptest.NewRecorder()
		NewHandler(prometheus.NewRegistry(), health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStartHTTPServer_ServesAndShutsDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{Addr: addr, Registry: prometheus.NewRegistry()}, zap.NewNop())
	}()

	var resp *http.Response

	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://%s/healthz", addr))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"ok"`)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestStartHTTPServer_AddressInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = StartHTTPServer(ctx, HTTPServerOptions{Addr: listener.Addr().String()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug server failed to start")
}
