package observability

import "testing"

func TestStageWindowSnapshot(t *testing.T) {
	w := NewStageWindow(8)
	w.Observe(StageRespond, 500)
	w.Observe(StageRespond, 700)
	w.Observe(StageRespond, 900)
	w.ObserveIndicator("empty_transcript")
	w.ObserveIndicator("empty_transcript")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageRespond {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageRespond)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 4000 {
		t.Fatalf("TargetP95MS = %.2f, want 4000", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want one entry with count 2", snap.Indicators)
	}
}

func TestStageWindowRingOverwrite(t *testing.T) {
	w := NewStageWindow(2)
	w.Observe(StagePlay, 10)
	w.Observe(StagePlay, 20)
	w.Observe(StagePlay, 30)

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.LastMS != 30 {
		t.Fatalf("LastMS = %.2f, want 30", s.LastMS)
	}
}

func TestStageWindowReset(t *testing.T) {
	w := NewStageWindow(4)
	w.Observe(StageCapture, 5)
	w.ObserveIndicator("empty_capture")
	w.Reset()

	snap := w.Snapshot()
	if len(snap.Stages) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("snapshot after reset = %+v, want empty", snap)
	}
}
