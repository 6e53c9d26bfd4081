// Package semantic computes similarity between embedded BPMN tasks and
// code items and derives task/code matchings from the score matrix.
package semantic

import (
	"fmt"
	"sort"

	"github.com/covadev/covatrace/pkg/embed"
)

// SimilarityMeta describes one similarity computation.
type SimilarityMeta struct {
	Metric    string `json:"metric"`
	TaskCount int    `json:"task_count"`
	CodeCount int    `json:"code_count"`
}

// Similarity holds the full task x code score matrix. Row i corresponds
// to TaskIDs[i], column j to CodeIDs[j].
type Similarity struct {
	Meta    SimilarityMeta `json:"meta"`
	TaskIDs []string       `json:"task_ids"`
	CodeIDs []string       `json:"code_ids"`
	Matrix  [][]float64    `json:"matrix"`
}

// Compute builds the cosine similarity matrix between task and code
// records. Vectors are expected normalized, so the score is a clipped
// dot product. Either side being empty yields an empty matrix.
func Compute(tasks, code []embed.Record) (*Similarity, error) {
	sim := &Similarity{
		Meta:    SimilarityMeta{Metric: "cosine", TaskCount: len(tasks), CodeCount: len(code)},
		TaskIDs: make([]string, len(tasks)),
		CodeIDs: make([]string, len(code)),
		Matrix:  make([][]float64, len(tasks)),
	}
	for i, t := range tasks {
		sim.TaskIDs[i] = t.ID
	}
	for j, c := range code {
		sim.CodeIDs[j] = c.ID
	}

	for i, t := range tasks {
		row := make([]float64, len(code))
		for j, c := range code {
			if len(t.Vector) != len(c.Vector) {
				return nil, fmt.Errorf("embedding dim mismatch: task %s has %d, code %s has %d",
					t.ID, len(t.Vector), c.ID, len(c.Vector))
			}
			row[j] = clip(dot(t.Vector, c.Vector))
		}
		sim.Matrix[i] = row
	}
	return sim, nil
}

// Candidate is one scored code item for a task.
type Candidate struct {
	CodeID string  `json:"code_id"`
	Score  float64 `json:"score"`
}

// TopK returns the k best code candidates per task id, sorted by score
// descending with ties kept in column order.
func TopK(sim *Similarity, k int) map[string][]Candidate {
	out := make(map[string][]Candidate, len(sim.TaskIDs))
	for i, taskID := range sim.TaskIDs {
		row := sim.Matrix[i]
		idx := make([]int, len(row))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })

		n := k
		if n < 0 {
			n = 0
		}
		if n > len(idx) {
			n = len(idx)
		}
		cands := make([]Candidate, 0, n)
		for _, j := range idx[:n] {
			cands = append(cands, Candidate{CodeID: sim.CodeIDs[j], Score: row[j]})
		}
		out[taskID] = cands
	}
	return out
}

// ScoreVector scores one query vector against code records, for the
// workflow-level similarity view.
func ScoreVector(query []float32, code []embed.Record, k int) ([]Candidate, error) {
	scores := make([]float64, len(code))
	for j, c := range code {
		if len(query) != len(c.Vector) {
			return nil, fmt.Errorf("embedding dim mismatch: query has %d, code %s has %d",
				len(query), c.ID, len(c.Vector))
		}
		scores[j] = clip(dot(query, c.Vector))
	}
	idx := make([]int, len(scores))
	for j := range idx {
		idx[j] = j
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if k < 0 {
		k = 0
	}
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]Candidate, 0, k)
	for _, j := range idx[:k] {
		out = append(out, Candidate{CodeID: code[j].ID, Score: scores[j]})
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
