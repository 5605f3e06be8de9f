package orchestration

import (
	"errors"
	"testing"
)

func TestNewProgressAggregator(t *testing.T) {
	t.Parallel()
	if agg := NewProgressAggregator(3); agg == nil || agg.NumTasks() != 3 {
		t.Fatal("expected an aggregator tracking 3 tasks")
	}
	for _, n := range []int{0, -1} {
		if agg := NewProgressAggregator(n); agg != nil {
			t.Errorf("expected nil aggregator for numTasks=%d", n)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(4)
	if agg.Fraction() != 0 {
		t.Errorf("initial fraction = %f", agg.Fraction())
	}

	ap := agg.Update(ProgressUpdate{Index: 0, Name: "LGM/MAT/Globe/Cleator2019/IPSL"})
	if ap.Name != "LGM/MAT/Globe/Cleator2019/IPSL" || ap.Done != 1 || ap.Failed != 0 {
		t.Errorf("unexpected update %+v", ap)
	}
	if ap.Fraction != 0.25 {
		t.Errorf("fraction = %f, want 0.25", ap.Fraction)
	}

	ap = agg.Update(ProgressUpdate{Index: 1, Err: errors.New("missing file")})
	if ap.Done != 2 || ap.Failed != 1 || ap.Fraction != 0.5 {
		t.Errorf("unexpected update %+v", ap)
	}
	if agg.Fraction() != 0.5 {
		t.Errorf("Fraction() = %f, want 0.5", agg.Fraction())
	}
}

func TestDrainChannel(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 3)
	ch <- ProgressUpdate{Index: 0}
	ch <- ProgressUpdate{Index: 1}
	close(ch)
	DrainChannel(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be drained")
	}
}
