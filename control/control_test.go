package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.EventGenerated("connection")
	m.TaskSubmitted("pool")
	m.TaskFinished("pool", errors.New("x"))
	m.ActiveChanged("pool", 3)
	m.Response(200)
	m.BodyBytes(10)
	m.ConnOpened()
	m.ConnClosed()
	m.DispatchFailed()
	if m.Registry() != nil {
		t.Fatal("nil metrics should have no registry")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.EventGenerated("connection")
	m.EventGenerated("connection")
	m.TaskFinished("pool", nil)
	m.TaskFinished("pool", errors.New("boom"))
	m.Response(404)
	m.BodyBytes(10)

	if got := testutil.ToFloat64(m.events.WithLabelValues("connection")); got != 2 {
		t.Errorf("events_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tasksFinished.WithLabelValues("pool", "error")); got != 1 {
		t.Errorf("tasks_finished_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.responses.WithLabelValues("404")); got != 1 {
		t.Errorf("responses_total{404} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bodyBytes); got != 10 {
		t.Errorf("body_bytes_total = %v, want 10", got)
	}
}

func TestConfigStore_Snapshot(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]any{"b": 2, "a": 1})
	snap := cs.GetSnapshot()
	snap["a"] = 100
	if v, _ := cs.Get("a"); v != 1 {
		t.Fatalf("snapshot must be a copy, store has %v", v)
	}
	keys := cs.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestAdminRouter(t *testing.T) {
	m := NewMetrics()
	m.EventGenerated("datagram")
	probes := NewDebugProbes()
	RegisterPlatformProbes(probes)
	probes.RegisterProbe("server.state", func() any { return "serving" })
	cfg := NewConfigStore()
	cfg.SetConfig(map[string]any{"address": "127.0.0.1:8080"})

	srv := httptest.NewServer(NewAdminRouter(m, probes, cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body := new(bytes.Buffer)
	_, _ = body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(body.String(), `evserve_events_total{kind="datagram"} 1`) {
		t.Errorf("metrics output missing events counter:\n%s", body.String())
	}

	resp, err = http.Get(srv.URL + "/debug/state")
	if err != nil {
		t.Fatalf("GET /debug/state: %v", err)
	}
	var state map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	resp.Body.Close()
	if state["server.state"] != "serving" {
		t.Errorf("unexpected state %v", state)
	}

	resp, err = http.Get(srv.URL + "/debug/config")
	if err != nil {
		t.Fatalf("GET /debug/config: %v", err)
	}
	var conf map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&conf)
	resp.Body.Close()
	if conf["address"] != "127.0.0.1:8080" {
		t.Errorf("unexpected config %v", conf)
	}
}
