package semantic

import (
	"fmt"
	"sort"
)

// MatchPair links one BPMN task to one code item with its score.
type MatchPair struct {
	TaskID string  `json:"task_id"`
	CodeID string  `json:"code_id"`
	Score  float64 `json:"score"`
}

// MatchingMeta describes how a matching was produced.
type MatchingMeta struct {
	Threshold float64 `json:"threshold"`
	Strategy  string  `json:"strategy"`
}

// Matching is the result of a matching strategy: matched pairs plus the
// tasks and code items left unmatched.
type Matching struct {
	Meta    MatchingMeta `json:"meta"`
	Matched []MatchPair  `json:"matched"`
	Missing []string     `json:"missing"` // task ids without a code match
	Extra   []string     `json:"extra"`   // code ids not claimed by any task
}

func validateSimilarity(sim *Similarity) error {
	if len(sim.Matrix) != len(sim.TaskIDs) {
		return fmt.Errorf("similarity shape mismatch: %d rows for %d tasks", len(sim.Matrix), len(sim.TaskIDs))
	}
	for i, row := range sim.Matrix {
		if len(row) != len(sim.CodeIDs) {
			return fmt.Errorf("similarity shape mismatch: row %d has %d columns for %d code items", i, len(row), len(sim.CodeIDs))
		}
	}
	return nil
}

// GreedyOneToOne matches tasks and code items one to one: all pairs at
// or above the threshold are sorted by score descending and claimed
// greedily, each task and each code item at most once.
func GreedyOneToOne(sim *Similarity, threshold float64) (*Matching, error) {
	if err := validateSimilarity(sim); err != nil {
		return nil, err
	}

	type cand struct {
		row, col int
		score    float64
	}
	cands := []cand{}
	for i, row := range sim.Matrix {
		for j, score := range row {
			if score >= threshold {
				cands = append(cands, cand{row: i, col: j, score: score})
			}
		}
	}
	// stable keeps row-major order among equal scores
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })

	usedTask := make(map[int]bool)
	usedCode := make(map[int]bool)
	matched := []MatchPair{}
	for _, c := range cands {
		if usedTask[c.row] || usedCode[c.col] {
			continue
		}
		usedTask[c.row] = true
		usedCode[c.col] = true
		matched = append(matched, MatchPair{TaskID: sim.TaskIDs[c.row], CodeID: sim.CodeIDs[c.col], Score: c.score})
	}

	missing := []string{}
	for i, id := range sim.TaskIDs {
		if !usedTask[i] {
			missing = append(missing, id)
		}
	}
	extra := []string{}
	for j, id := range sim.CodeIDs {
		if !usedCode[j] {
			extra = append(extra, id)
		}
	}

	return &Matching{
		Meta:    MatchingMeta{Threshold: threshold, Strategy: "greedy_one_to_one"},
		Matched: matched,
		Missing: missing,
		Extra:   extra,
	}, nil
}

// BestPerTask gives every task its highest-scoring code item at or
// above the threshold. Code items may serve several tasks.
func BestPerTask(sim *Similarity, threshold float64) (*Matching, error) {
	if err := validateSimilarity(sim); err != nil {
		return nil, err
	}

	usedCode := make(map[int]bool)
	matched := []MatchPair{}
	missing := []string{}
	for i, row := range sim.Matrix {
		best := -1
		for j, score := range row {
			if score < threshold {
				continue
			}
			if best == -1 || score > row[best] {
				best = j
			}
		}
		if best == -1 {
			missing = append(missing, sim.TaskIDs[i])
			continue
		}
		usedCode[best] = true
		matched = append(matched, MatchPair{TaskID: sim.TaskIDs[i], CodeID: sim.CodeIDs[best], Score: row[best]})
	}

	extra := []string{}
	for j, id := range sim.CodeIDs {
		if !usedCode[j] {
			extra = append(extra, id)
		}
	}

	return &Matching{
		Meta:    MatchingMeta{Threshold: threshold, Strategy: "best_per_task_many_to_one"},
		Matched: matched,
		Missing: missing,
		Extra:   extra,
	}, nil
}
