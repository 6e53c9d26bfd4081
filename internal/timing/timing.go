// Package timing tracks how long the stages of an analysis run take.
package timing

import "time"

// Stage is one completed pipeline stage with its duration.
type Stage struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
}

// Tracker measures consecutive stages. Mark closes the current stage
// and starts the next one.
type Tracker struct {
	last   time.Time
	stages []Stage
}

func NewTracker() *Tracker {
	return &Tracker{last: time.Now()}
}

func (t *Tracker) Mark(name string) {
	now := time.Now()
	t.stages = append(t.stages, Stage{
		Name:       name,
		DurationMs: now.Sub(t.last).Milliseconds(),
	})
	t.last = now
}

func (t *Tracker) Stages() []Stage {
	return t.stages
}

// TotalMs is the summed duration of all marked stages.
func (t *Tracker) TotalMs() int64 {
	var total int64
	for _, s := range t.stages {
		total += s.DurationMs
	}
	return total
}
