package evaluation

import (
	"math"
	"testing"

	"github.com/covadev/covatrace/pkg/semantic"
)

func TestEvaluate(t *testing.T) {
	m := &semantic.Matching{
		Meta: semantic.MatchingMeta{Threshold: 0.5, Strategy: "greedy_one_to_one"},
		Matched: []semantic.MatchPair{
			{TaskID: "Task_1", CodeID: "fn_a", Score: 0.9},
			{TaskID: "Task_2", CodeID: "fn_b", Score: 0.7},
		},
		Missing: []string{"Task_3"},
		Extra:   []string{"fn_c", "fn_d"},
	}

	got := Evaluate(m)
	s := got.Summary

	if s.TotalTasks != 3 || s.MatchedCount != 2 || s.MissingCount != 1 || s.ExtraCount != 2 {
		t.Fatalf("summary counts = %+v", s)
	}
	if math.Abs(s.Precision-0.5) > 1e-9 {
		t.Fatalf("precision = %v, want 0.5", s.Precision)
	}
	if math.Abs(s.Recall-2.0/3.0) > 1e-9 {
		t.Fatalf("recall = %v, want 2/3", s.Recall)
	}
	wantF1 := 2 * 0.5 * (2.0 / 3.0) / (0.5 + 2.0/3.0)
	if math.Abs(s.F1-wantF1) > 1e-9 {
		t.Fatalf("f1 = %v, want %v", s.F1, wantF1)
	}
	if math.Abs(s.Alignment-200.0/3.0) > 1e-9 {
		t.Fatalf("alignment = %v, want %v", s.Alignment, 200.0/3.0)
	}
	if s.Threshold != 0.5 {
		t.Fatalf("threshold = %v", s.Threshold)
	}
	if len(got.Details.Matched) != 2 || len(got.Details.Missing) != 1 || len(got.Details.Extra) != 2 {
		t.Fatalf("details = %+v", got.Details)
	}
}

func TestEvaluate_EmptyMatching(t *testing.T) {
	got := Evaluate(&semantic.Matching{Meta: semantic.MatchingMeta{Threshold: 0.5}})
	s := got.Summary
	if s.TotalTasks != 0 || s.Precision != 0 || s.Recall != 0 || s.F1 != 0 || s.Alignment != 0 {
		t.Fatalf("summary = %+v, want all zeros", s)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(1, 0); got != 0 {
		t.Fatalf("SafeDiv(1, 0) = %v, want 0", got)
	}
	if got := SafeDiv(1, 2); got != 0.5 {
		t.Fatalf("SafeDiv(1, 2) = %v, want 0.5", got)
	}
}

func TestF1Score_ZeroBoth(t *testing.T) {
	if got := F1Score(0, 0); got != 0 {
		t.Fatalf("F1Score(0, 0) = %v, want 0", got)
	}
}
