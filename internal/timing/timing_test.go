package timing

import "testing"

func TestTrackerStages(t *testing.T) {
	tr := NewTracker()
	tr.Mark("precheck")
	tr.Mark("embed")

	stages := tr.Stages()
	if len(stages) != 2 {
		t.Fatalf("len(stages) = %d, want 2", len(stages))
	}
	if stages[0].Name != "precheck" || stages[1].Name != "embed" {
		t.Fatalf("stage names = %q, %q", stages[0].Name, stages[1].Name)
	}
	for _, s := range stages {
		if s.DurationMs < 0 {
			t.Fatalf("stage %s duration = %d, want >= 0", s.Name, s.DurationMs)
		}
	}

	var want int64
	for _, s := range stages {
		want += s.DurationMs
	}
	if got := tr.TotalMs(); got != want {
		t.Fatalf("TotalMs() = %d, want %d", got, want)
	}
}
