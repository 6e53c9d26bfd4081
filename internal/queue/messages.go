package queue

// AnalyzeJobMsg is the payload of one analyze job: which run to execute
// and where its inputs live in the object store.
type AnalyzeJobMsg struct {
	RunID          string  `json:"run_id"`
	ProjectID      int64   `json:"project_id"`
	BPMNKey        string  `json:"bpmn_key"`
	CodePrefix     string  `json:"code_prefix"`
	Matcher        string  `json:"matcher,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	TopK           int     `json:"top_k,omitempty"`
	Debug          bool    `json:"debug,omitempty"`
	ReuseArtifacts bool    `json:"reuse_artifacts,omitempty"`
}

// DeleteProjectMsg asks the worker to drop everything a project owns.
type DeleteProjectMsg struct {
	ProjectID int64  `json:"project_id"`
	Prefix    string `json:"prefix"`
}
