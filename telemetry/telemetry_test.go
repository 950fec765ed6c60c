package telemetry

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestServiceServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	cfg := Config{Enabled: true, ListenAddress: "127.0.0.1:0"}
	s, err := cfg.NewService(zaptest.NewLogger(t), reg)
	require.NoError(t, err)
	require.Equal(t, "telemetry", s.String())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	status, body := get(t, "http://"+s.Addr().String()+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "test_events_total 3")

	status, _ = get(t, "http://"+s.Addr().String()+"/debug/pprof/")
	require.Equal(t, http.StatusNotFound, status)
}

func TestServiceServesPprof(t *testing.T) {
	cfg := Config{Enabled: true, ListenAddress: "127.0.0.1:0", Pprof: true}
	s, err := cfg.NewService(zaptest.NewLogger(t), prometheus.NewRegistry())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	status, body := get(t, "http://"+s.Addr().String()+"/debug/pprof/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "goroutine")
}
