// Package evaluation derives traceability metrics from a task/code
// matching. Matched tasks count as true positives, unmatched tasks as
// false negatives and unclaimed code items as false positives.
package evaluation

import "github.com/covadev/covatrace/pkg/semantic"

// Summary holds the aggregate traceability metrics of one matching.
type Summary struct {
	TotalTasks   int     `json:"total_tasks"`
	MatchedCount int     `json:"matched_count"`
	MissingCount int     `json:"missing_count"`
	ExtraCount   int     `json:"extra_count"`
	Alignment    float64 `json:"alignment"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	Threshold    float64 `json:"threshold"`
}

// Details breaks the summary down into the contributing pairs and ids.
type Details struct {
	Matched []semantic.MatchPair `json:"matched"`
	Missing []string             `json:"missing"`
	Extra   []string             `json:"extra"`
}

// Result is the full evaluation output.
type Result struct {
	Summary Summary `json:"summary"`
	Details Details `json:"details"`
}

// SafeDiv divides and returns 0 when the denominator is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Precision is TP / (TP + FP).
func Precision(tp, fp int) float64 {
	return SafeDiv(float64(tp), float64(tp+fp))
}

// Recall is TP / (TP + FN).
func Recall(tp, fn int) float64 {
	return SafeDiv(float64(tp), float64(tp+fn))
}

// F1Score is the harmonic mean of precision and recall, 0 when both
// are 0.
func F1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// AlignmentPct is the share of tasks with a match, in percent.
func AlignmentPct(matched, totalTasks int) float64 {
	return SafeDiv(float64(matched), float64(totalTasks)) * 100
}

// Evaluate computes the traceability metrics for one matching.
func Evaluate(m *semantic.Matching) Result {
	tp := len(m.Matched)
	fn := len(m.Missing)
	fp := len(m.Extra)
	total := tp + fn

	p := Precision(tp, fp)
	r := Recall(tp, fn)

	return Result{
		Summary: Summary{
			TotalTasks:   total,
			MatchedCount: tp,
			MissingCount: fn,
			ExtraCount:   fp,
			Alignment:    AlignmentPct(tp, total),
			Precision:    p,
			Recall:       r,
			F1:           F1Score(p, r),
			Threshold:    m.Meta.Threshold,
		},
		Details: Details{
			Matched: m.Matched,
			Missing: m.Missing,
			Extra:   m.Extra,
		},
	}
}
