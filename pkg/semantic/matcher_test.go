package semantic

import (
	"strings"
	"testing"
)

func sampleSim() *Similarity {
	return &Similarity{
		TaskIDs: []string{"Task_1", "Task_2", "Task_3"},
		CodeIDs: []string{"fn_a", "fn_b", "fn_c"},
		Matrix: [][]float64{
			{0.9, 0.8, 0.1},
			{0.85, 0.7, 0.2},
			{0.1, 0.2, 0.3},
		},
	}
}

func TestGreedyOneToOne(t *testing.T) {
	m, err := GreedyOneToOne(sampleSim(), 0.5)
	if err != nil {
		t.Fatalf("GreedyOneToOne() error = %v", err)
	}
	if m.Meta.Strategy != "greedy_one_to_one" || m.Meta.Threshold != 0.5 {
		t.Fatalf("meta = %+v", m.Meta)
	}

	// Task_1 claims fn_a at 0.9, so Task_2 falls through to fn_b at 0.7
	if len(m.Matched) != 2 {
		t.Fatalf("matched = %+v, want 2 pairs", m.Matched)
	}
	if m.Matched[0].TaskID != "Task_1" || m.Matched[0].CodeID != "fn_a" {
		t.Fatalf("matched[0] = %+v", m.Matched[0])
	}
	if m.Matched[1].TaskID != "Task_2" || m.Matched[1].CodeID != "fn_b" {
		t.Fatalf("matched[1] = %+v", m.Matched[1])
	}
	if len(m.Missing) != 1 || m.Missing[0] != "Task_3" {
		t.Fatalf("missing = %v", m.Missing)
	}
	if len(m.Extra) != 1 || m.Extra[0] != "fn_c" {
		t.Fatalf("extra = %v", m.Extra)
	}
}

func TestGreedyOneToOne_ThresholdFiltersAll(t *testing.T) {
	m, err := GreedyOneToOne(sampleSim(), 0.95)
	if err != nil {
		t.Fatalf("GreedyOneToOne() error = %v", err)
	}
	if len(m.Matched) != 0 || len(m.Missing) != 3 || len(m.Extra) != 3 {
		t.Fatalf("matching = %+v", m)
	}
}

func TestBestPerTask(t *testing.T) {
	m, err := BestPerTask(sampleSim(), 0.5)
	if err != nil {
		t.Fatalf("BestPerTask() error = %v", err)
	}
	if m.Meta.Strategy != "best_per_task_many_to_one" {
		t.Fatalf("meta = %+v", m.Meta)
	}

	// both Task_1 and Task_2 pick fn_a
	if len(m.Matched) != 2 {
		t.Fatalf("matched = %+v", m.Matched)
	}
	for _, p := range m.Matched {
		if p.CodeID != "fn_a" {
			t.Fatalf("pair = %+v, want fn_a", p)
		}
	}
	if len(m.Missing) != 1 || m.Missing[0] != "Task_3" {
		t.Fatalf("missing = %v", m.Missing)
	}
	if len(m.Extra) != 2 {
		t.Fatalf("extra = %v, want fn_b and fn_c", m.Extra)
	}
}

func TestBestPerTask_TiePicksLowestIndex(t *testing.T) {
	sim := &Similarity{
		TaskIDs: []string{"Task_1"},
		CodeIDs: []string{"fn_a", "fn_b"},
		Matrix:  [][]float64{{0.8, 0.8}},
	}
	m, err := BestPerTask(sim, 0.5)
	if err != nil {
		t.Fatalf("BestPerTask() error = %v", err)
	}
	if m.Matched[0].CodeID != "fn_a" {
		t.Fatalf("matched = %+v, want fn_a on tie", m.Matched)
	}
}

func TestMatching_ShapeMismatch(t *testing.T) {
	sim := &Similarity{
		TaskIDs: []string{"Task_1", "Task_2"},
		CodeIDs: []string{"fn_a"},
		Matrix:  [][]float64{{0.5}},
	}
	if _, err := GreedyOneToOne(sim, 0.5); err == nil || !strings.Contains(err.Error(), "shape mismatch") {
		t.Fatalf("GreedyOneToOne() error = %v, want shape mismatch", err)
	}
	if _, err := BestPerTask(sim, 0.5); err == nil || !strings.Contains(err.Error(), "shape mismatch") {
		t.Fatalf("BestPerTask() error = %v, want shape mismatch", err)
	}
}

func TestBestPerTask_AgreesWithTopOneCandidate(t *testing.T) {
	sim := &Similarity{
		TaskIDs: []string{"Task_1", "Task_2", "Task_3"},
		CodeIDs: []string{"fn_a", "fn_b", "fn_c"},
		Matrix: [][]float64{
			{0.9, 0.8, 0.1},
			{0.7, 0.7, 0.2}, // tied maximum, both sides must pick fn_a
			{0.1, 0.2, 0.3},
		},
	}

	m, err := BestPerTask(sim, 0.5)
	if err != nil {
		t.Fatalf("BestPerTask() error = %v", err)
	}
	top := TopK(sim, 1)

	if len(m.Matched) != 2 {
		t.Fatalf("matched = %+v, want Task_1 and Task_2", m.Matched)
	}
	for _, p := range m.Matched {
		cands := top[p.TaskID]
		if len(cands) != 1 {
			t.Fatalf("top[%s] = %+v, want one candidate", p.TaskID, cands)
		}
		if cands[0].CodeID != p.CodeID || cands[0].Score != p.Score {
			t.Fatalf("top[%s] = %+v, match = %+v", p.TaskID, cands[0], p)
		}
	}

	byTask := map[string]string{}
	for _, p := range m.Matched {
		byTask[p.TaskID] = p.CodeID
	}
	if byTask["Task_2"] != "fn_a" {
		t.Fatalf("Task_2 match = %q, want fn_a on tie", byTask["Task_2"])
	}
}
