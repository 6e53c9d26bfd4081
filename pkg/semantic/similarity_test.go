package semantic

import (
	"math"
	"strings"
	"testing"

	"github.com/covadev/covatrace/pkg/embed"
)

func rec(id string, vec ...float32) embed.Record {
	return embed.Record{ID: id, Vector: vec}
}

func TestCompute(t *testing.T) {
	tasks := []embed.Record{
		rec("Task_1", 1, 0),
		rec("Task_2", 0, 1),
	}
	code := []embed.Record{
		rec("fn_a", 1, 0),
		rec("fn_b", 0.6, 0.8),
	}

	sim, err := Compute(tasks, code)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if sim.Meta.Metric != "cosine" || sim.Meta.TaskCount != 2 || sim.Meta.CodeCount != 2 {
		t.Fatalf("meta = %+v", sim.Meta)
	}
	if got := sim.Matrix[0][0]; got != 1 {
		t.Fatalf("m[0][0] = %v, want 1", got)
	}
	if got := sim.Matrix[1][1]; math.Abs(got-0.8) > 1e-6 {
		t.Fatalf("m[1][1] = %v, want 0.8", got)
	}
	if got := sim.Matrix[1][0]; got != 0 {
		t.Fatalf("m[1][0] = %v, want 0", got)
	}
}

func TestCompute_Empty(t *testing.T) {
	sim, err := Compute(nil, []embed.Record{rec("fn_a", 1)})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(sim.Matrix) != 0 {
		t.Fatalf("matrix = %v, want empty", sim.Matrix)
	}

	sim, err = Compute([]embed.Record{rec("Task_1", 1)}, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(sim.Matrix) != 1 || len(sim.Matrix[0]) != 0 {
		t.Fatalf("matrix = %v, want one empty row", sim.Matrix)
	}
}

func TestCompute_DimMismatch(t *testing.T) {
	_, err := Compute([]embed.Record{rec("Task_1", 1, 0)}, []embed.Record{rec("fn_a", 1)})
	if err == nil || !strings.Contains(err.Error(), "dim mismatch") {
		t.Fatalf("Compute() error = %v, want dim mismatch", err)
	}
}

func TestCompute_ClipsScores(t *testing.T) {
	// unnormalized vectors can push the dot product past 1
	sim, err := Compute([]embed.Record{rec("Task_1", 2, 0)}, []embed.Record{rec("fn_a", 2, 0)})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if sim.Matrix[0][0] != 1 {
		t.Fatalf("score = %v, want clipped to 1", sim.Matrix[0][0])
	}
}

func TestTopK(t *testing.T) {
	sim := &Similarity{
		TaskIDs: []string{"Task_1"},
		CodeIDs: []string{"a", "b", "c", "d"},
		Matrix:  [][]float64{{0.2, 0.9, 0.9, 0.5}},
	}

	got := TopK(sim, 3)["Task_1"]
	if len(got) != 3 {
		t.Fatalf("topk = %+v, want 3 candidates", got)
	}
	// equal scores keep column order
	if got[0].CodeID != "b" || got[1].CodeID != "c" || got[2].CodeID != "d" {
		t.Fatalf("topk order = %+v", got)
	}

	if got := TopK(sim, 10)["Task_1"]; len(got) != 4 {
		t.Fatalf("topk with large k = %+v, want all 4", got)
	}
}

func TestScoreVector(t *testing.T) {
	code := []embed.Record{rec("a", 1, 0), rec("b", 0, 1), rec("c", 0.6, 0.8)}
	got, err := ScoreVector([]float32{0, 1}, code, 2)
	if err != nil {
		t.Fatalf("ScoreVector() error = %v", err)
	}
	if len(got) != 2 || got[0].CodeID != "b" || got[1].CodeID != "c" {
		t.Fatalf("ScoreVector() = %+v", got)
	}
}

func TestTopK_NonPositiveK(t *testing.T) {
	sim := &Similarity{
		TaskIDs: []string{"Task_1"},
		CodeIDs: []string{"fn_a", "fn_b"},
		Matrix:  [][]float64{{0.4, 0.6}},
	}
	for _, k := range []int{0, -1} {
		top := TopK(sim, k)
		if len(top["Task_1"]) != 0 {
			t.Fatalf("TopK(k=%d) = %+v, want no candidates", k, top["Task_1"])
		}
	}
}

func TestScoreVector_NonPositiveK(t *testing.T) {
	code := []embed.Record{rec("fn_a", 1, 0), rec("fn_b", 0, 1)}
	for _, k := range []int{0, -1} {
		cands, err := ScoreVector([]float32{1, 0}, code, k)
		if err != nil {
			t.Fatalf("ScoreVector(k=%d) error = %v", k, err)
		}
		if len(cands) != 0 {
			t.Fatalf("ScoreVector(k=%d) = %+v, want empty", k, cands)
		}
	}
}
