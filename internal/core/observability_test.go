package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "create_packing_list", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_packing_list", true, 30*time.Millisecond)
	rec.Observe(ctx, "create_packing_list", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["create_packing_list"]; got != 55 {
		t.Fatalf("expected 55ms total, got %v", got)
	}
	if snap.Results["create_packing_list"]["success"] != 2 {
		t.Fatalf("expected 2 successes, got %+v", snap.Results)
	}
	if snap.Results["create_packing_list"]["error"] != 1 {
		t.Fatalf("expected 1 error, got %+v", snap.Results)
	}
	if !strings.HasPrefix(rec.Name(), "qcms_service_metrics_") {
		t.Fatalf("unexpected expvar name %q", rec.Name())
	}
}

func TestServiceObserveFlowsIntoRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	svc := NewInMemoryService(identity("admin-1", domain.RoleAdmin), WithMetrics(rec))
	ctx := context.Background()

	if _, _, err := svc.CreateSupplier(ctx, domain.Supplier{Code: "SUP-1", Name: "Acme"}); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if _, err := svc.DeleteSupplier(ctx, "SUP-MISSING"); err == nil {
		t.Fatal("expected delete of missing supplier to fail")
	}

	snap := rec.Snapshot()
	if snap.Results["create_supplier"]["success"] != 1 {
		t.Fatalf("create_supplier success not recorded: %+v", snap.Results)
	}
	if snap.Results["delete_supplier"]["error"] != 1 {
		t.Fatalf("delete_supplier error not recorded: %+v", snap.Results)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rec.Observe(context.Background(), "sign_release_order", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "sign_release_order", false, 12*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	for _, name := range []string{"qcms_service_operation_duration_seconds", "qcms_service_operation_results_total"} {
		if !found[name] {
			t.Fatalf("metric family %s missing, got %v", name, found)
		}
	}

	// Double registration of the same collectors must fail.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "create_delivery_order")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "create_delivery_order")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected statuses: %+v", entries)
	}
	if entries[1].Error != "boom" {
		t.Fatalf("error message not captured: %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var first JSONTraceEntry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first.Operation != "create_delivery_order" {
		t.Fatalf("unexpected operation %q", first.Operation)
	}
}

func TestZapLoggerAdapterDoesNotPanic(t *testing.T) {
	log := NewZapLogger(zap.NewNop())
	log.Debug("debug", "k", 1)
	log.Info("info", "k", 2)
	log.Warn("warn", "k", 3)
	log.Error("error", "k", 4)
}

func TestNoopObservabilityDefaults(t *testing.T) {
	svc := NewInMemoryService()
	if _, _, err := svc.CreatePackingList(context.Background(), domain.PackingList{PLNumber: "PL-1", Destination: "plant"}); err != nil {
		t.Fatalf("service with noop observability must still work: %v", err)
	}
}
