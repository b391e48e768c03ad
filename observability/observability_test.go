package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/buildflow/buildflow/dbopen"
)

func TestInitCreatesTables(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, table := range []string{"business_event_logs", "metrics_timeseries", "_observability_metadata"} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil || count != 1 {
			t.Errorf("table %s missing (err=%v)", table, err)
		}
	}
}

func TestEventLogger(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatalf("Init: %v", err)
	}

	l := NewEventLogger(db)
	l.LogEvent(context.Background(), BusinessEvent{
		EventType:   "design_mutated",
		ServiceName: "buildflow",
		EntityType:  "design",
		EntityID:    "dsn_123",
		Action:      "set_classes",
		Success:     true,
	})

	var action string
	var success int
	err := db.QueryRow(
		"SELECT action, success FROM business_event_logs WHERE entity_id='dsn_123'").Scan(&action, &success)
	if err != nil {
		t.Fatalf("query event: %v", err)
	}
	if action != "set_classes" || success != 1 {
		t.Errorf("got action=%q success=%d", action, success)
	}
}

func TestMetricsManager(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatalf("Init: %v", err)
	}

	mm := NewMetricsManager(db, 100, 50*time.Millisecond)
	mm.RecordSimple(MetricMutationDurationMs, 3.5, "milliseconds")
	mm.Record(&Metric{
		Name:      MetricDocumentBytes,
		Timestamp: time.Now(),
		Value:     2048,
		Labels:    map[string]string{"design": "dsn_123"},
		Unit:      "bytes",
	})
	mm.Close()

	metrics, err := mm.Query(MetricDocumentBytes, nil, nil, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("metric count: got %d, want 1", len(metrics))
	}
	if metrics[0].Labels["design"] != "dsn_123" {
		t.Errorf("labels not round-tripped: %v", metrics[0].Labels)
	}

	all, err := mm.Query("", nil, nil, 0)
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all metrics: got %d, want 2", len(all))
	}
}

func TestCleanup(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatalf("Init: %v", err)
	}

	old := time.Now().AddDate(0, 0, -30).Unix()
	_, err := db.Exec(`
		INSERT INTO business_event_logs (event_id, event_type, service_name, action, success, created_at)
		VALUES ('evt_old', 'design_created', 'buildflow', 'create', 1, ?)`, old)
	if err != nil {
		t.Fatal(err)
	}

	l := NewEventLogger(db)
	l.LogEvent(context.Background(), BusinessEvent{
		EventType: "design_created", ServiceName: "buildflow", Action: "create", Success: true,
	})

	if err := Cleanup(context.Background(), db, RetentionConfig{EventLogsDays: 7}); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM business_event_logs").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("after cleanup: got %d events, want 1", count)
	}
}
