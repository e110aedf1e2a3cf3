package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/routeup/routeup/core/metrics"
	"github.com/routeup/routeup/core/model"
)

func TestPromSink_RecordStageResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}
	now := time.Now()
	recs := []coremetrics.StageResult{
		{RouteTitle: "Route A", Stage: model.StageInitialized, OK: true, Duration: 120 * time.Millisecond, Time: now},
		{RouteTitle: "Route B", Stage: model.StageOptimized, Unknown: true, Time: now},
	}
	if err := sink.RecordStageResults(recs); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP upload_stage_results_total Total number of per-route stage results
# TYPE upload_stage_results_total counter
upload_stage_results_total{result="ok",stage="initialized"} 1
upload_stage_results_total{result="unknown",stage="optimized"} 1
`
	if err := testutil.CollectAndCompare(sink.stages, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	if c := testutil.CollectAndCount(sink.durations); c == 0 {
		t.Errorf("duration not recorded")
	}
}

func TestPromSink_RecordCallRetryAndRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordCallRetry(coremetrics.CallRetryEvent{Class: "write", Status: 429, Wait: time.Second}); err != nil {
		t.Fatalf("retry error: %v", err)
	}
	expectedRetries := `
# HELP upload_call_retries_total Total number of remote calls re-queued after a backoff
# TYPE upload_call_retries_total counter
upload_call_retries_total{class="write",status="429"} 1
`
	if err := testutil.CollectAndCompare(sink.retries, strings.NewReader(expectedRetries)); err != nil {
		t.Errorf("unexpected retry metrics: %v", err)
	}

	if err := sink.RecordRun(coremetrics.RunEvent{RunID: "run-1", Routes: 3, Failed: 1}); err != nil {
		t.Fatalf("run error: %v", err)
	}
	expectedRuns := `
# HELP upload_runs_total Total number of finished upload runs
# TYPE upload_runs_total counter
upload_runs_total{result="failed"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expectedRuns)); err != nil {
		t.Errorf("unexpected run metrics: %v", err)
	}
}

// Registering twice on the same registerer must reuse the existing collectors.
func TestNewPromSinkWithRegistryTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second create: %v", err)
	}
}
