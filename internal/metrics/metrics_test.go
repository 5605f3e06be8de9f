package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoryCollector_Snapshot(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCollector()
	snap := mc.Snapshot()

	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
}

func TestMemoryCollector_Collect(t *testing.T) {
	t.Parallel()
	if n := testutil.CollectAndCount(NewMemoryCollector()); n != 4 {
		t.Errorf("collected %d metrics, want 4", n)
	}
}

func TestMetricsCounters(t *testing.T) {
	t.Parallel()
	m := New()
	m.FieldRead(SourceModel)
	m.FieldRead(SourceModel)
	m.FieldRead(SourceReconstruction)
	m.TaskDone("model", StatusOK, 10*time.Millisecond)
	m.TaskDone("model", StatusSkipped, time.Millisecond)
	m.Iterations(10000)
	m.Iterations(-1)

	if got := testutil.ToFloat64(m.fieldsRead.WithLabelValues(SourceModel)); got != 2 {
		t.Errorf("model fields read = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tasks.WithLabelValues("model", StatusSkipped)); got != 1 {
		t.Errorf("skipped tasks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.iterations); got != 10000 {
		t.Errorf("iterations = %v, want 10000", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.FieldRead(SourceModel)
	m.TaskDone("model", StatusOK, time.Second)
	m.Iterations(5)
}

func TestWriteToTextfile(t *testing.T) {
	t.Parallel()
	m := New()
	m.TaskDone("reconstruction", StatusOK, 2*time.Millisecond)
	path := filepath.Join(t.TempDir(), "dmcompare.prom")
	if err := m.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, want := range []string{"dmcompare_tasks_total", "dmcompare_heap_alloc_bytes", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("textfile should contain %s", want)
		}
	}
}
