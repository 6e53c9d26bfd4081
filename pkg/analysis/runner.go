package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/covadev/covatrace/internal/timing"

	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/bpmn"
	"github.com/covadev/covatrace/pkg/codescan"
	"github.com/covadev/covatrace/pkg/embed"
	"github.com/covadev/covatrace/pkg/evaluation"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/semantic"
	"github.com/covadev/covatrace/pkg/summary"
)

const (
	// DefaultThreshold is the minimum similarity for a task/code match.
	DefaultThreshold = 0.4
	// DefaultTopK bounds the candidate list per task in the report.
	DefaultTopK = 5
	// DefaultBatchSize is the embedding batch size.
	DefaultBatchSize = 32

	maxSummaryErrorSample = 5
)

// Options configure one analysis run. Zero values select the defaults.
type Options struct {
	Matcher    string // "greedy_one_to_one" (default) or "best_per_task"
	Threshold  float64
	TopK       int
	BatchSize  int
	EmbedModel string
	Workers    int
	Debug      bool
}

func (o Options) withDefaults() Options {
	if o.Matcher == "" {
		o.Matcher = "greedy_one_to_one"
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// PersistedArtifact is a previously stored function record with its
// summaries and embedding, used to skip the scan and model stages.
type PersistedArtifact struct {
	Function          codescan.StructuredFunction
	SummaryText       string
	StructuredSummary string
	Vector            []float32
}

// Input is everything one run consumes. Persisted artifacts, when
// present, replace scanning and summarizing CodeRoot.
type Input struct {
	BPMN      []byte
	CodeRoot  string
	Persisted []PersistedArtifact
}

// PrecheckError is returned when the BPMN model fails a hard gate; the
// later stages never ran.
type PrecheckError struct {
	Result bpmn.PrecheckResult
}

func (e *PrecheckError) Error() string {
	return "bpmn precheck failed: " + strings.Join(e.Result.Errors, "; ")
}

// Runner executes analysis runs against one AI client.
type Runner struct {
	client    ai.TraceAIClient
	summarize *summary.Service
	opts      Options
}

// NewRunner creates a runner with the given options.
func NewRunner(client ai.TraceAIClient, opts Options) *Runner {
	opts = opts.withDefaults()
	return &Runner{
		client:    client,
		summarize: summary.NewService(client, opts.Workers),
		opts:      opts,
	}
}

// Run executes the whole pipeline and returns the report. A failing
// precheck returns a *PrecheckError and no report; external model
// failures degrade to fallback texts instead of aborting.
func (r *Runner) Run(ctx context.Context, in Input) (*Report, error) {
	tracker := timing.NewTracker()

	pre := bpmn.Precheck(in.BPMN)
	if !pre.OK {
		return nil, &PrecheckError{Result: pre}
	}

	graph, err := bpmn.ParseGraph(in.BPMN)
	if err != nil {
		return nil, fmt.Errorf("parse bpmn graph: %w", err)
	}
	tracker.Mark("parse")

	items, status, usedPersisted, err := r.collectCodeItems(ctx, in)
	if err != nil {
		return nil, err
	}
	tracker.Mark("code")

	report := &Report{
		Meta: ReportMeta{
			Matcher:                r.opts.Matcher,
			Threshold:              r.opts.Threshold,
			TopK:                   r.opts.TopK,
			BatchSize:              r.opts.BatchSize,
			UsedPersistedArtifacts: usedPersisted,
		},
		BPMN:          graph,
		TopK:          map[string][]semantic.Candidate{},
		SummaryStatus: status,
	}
	report.Code.Items = items.report

	embedInputs := items.embed
	if usedPersisted {
		embedInputs = nil
	}
	pipeline := embed.NewPipeline(r.client, r.opts.EmbedModel, r.opts.BatchSize)
	embedded, err := pipeline.Run(ctx, graph.Tasks, embedInputs)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	// persisted vectors take the place of freshly embedded code vectors
	if usedPersisted {
		embedded.CodeEmbeddings = items.persistedRecords
		embedded.Meta.CodeCount = len(items.persistedRecords)
	}
	tracker.Mark("embed")

	sim, err := semantic.Compute(embedded.TaskEmbeddings, embedded.CodeEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	var matching *semantic.Matching
	switch r.opts.Matcher {
	case "best_per_task":
		matching, err = semantic.BestPerTask(sim, r.opts.Threshold)
	default:
		matching, err = semantic.GreedyOneToOne(sim, r.opts.Threshold)
	}
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	tracker.Mark("match")

	report.Matching = matching
	report.TopK = semantic.TopK(sim, r.opts.TopK)
	report.Evaluation = evaluation.Evaluate(matching)
	report.Stats = Stats{
		Tasks:               len(graph.Tasks),
		StructuredFunctions: items.functionCount,
		CodeCountEmbedded:   len(embedded.CodeEmbeddings),
		Matched:             len(matching.Matched),
		Missing:             len(matching.Missing),
		Extra:               len(matching.Extra),
	}

	if !usedPersisted && len(items.functions) > 0 {
		report.Artifacts = collectArtifacts(items.functions, report.Code.Items, embedded.CodeEmbeddings)
	}

	r.addWorkflowView(ctx, report, graph, pipeline, embedded.CodeEmbeddings)
	tracker.Mark("workflow_view")

	report.Debug = &Debug{
		CodeRoot:       in.CodeRoot,
		EmbeddingMeta:  embedded.Meta,
		SimilarityMeta: sim.Meta,
		StageTimings:   tracker.Stages(),
	}
	if r.opts.Debug {
		report.Debug.Similarity = sim
		report.Debug.TaskEmbeddings = embedded.TaskEmbeddings
		report.Debug.CodeEmbeddings = embedded.CodeEmbeddings
	}

	return report, nil
}

// codeItems carries the three parallel views of the code side: report
// entries, embedding inputs and (for the fast path) ready-made records.
type codeItems struct {
	report           []CodeItem
	embed            []embed.CodeInput
	persistedRecords []embed.Record
	functions        []codescan.StructuredFunction
	functionCount    int
}

func (r *Runner) collectCodeItems(ctx context.Context, in Input) (*codeItems, *SummaryStatus, bool, error) {
	if len(in.Persisted) > 0 {
		return itemsFromPersisted(in.Persisted), nil, true, nil
	}

	scan, err := codescan.ScanDirectory(ctx, in.CodeRoot)
	if err != nil {
		return nil, nil, false, fmt.Errorf("scan code root: %w", err)
	}

	summaries, serrs := r.summarize.SummarizeMany(ctx, scan.Functions)

	items := &codeItems{functionCount: len(scan.Functions), functions: scan.Functions}
	for _, sf := range scan.Functions {
		uid := sf.FunctionUID
		structured := summary.BuildStructuredSummary(sf)

		sum, ok := summaries[uid]
		short := sum.Short
		if !ok {
			short = summary.Fallback(sf)
		}

		items.report = append(items.report, CodeItem{
			ID:                uid,
			Type:              sf.Kind,
			Name:              sf.FunctionName,
			SourcePath:        sf.FilePath,
			SummaryText:       short,
			StructuredSummary: structured,
			Text:              short,
		})
		items.embed = append(items.embed, codeEmbedInput(uid, sf.Kind, sf.FunctionName, short))
	}

	for _, it := range scan.ReactItems {
		items.report = append(items.report, CodeItem{
			ID:          it.ID,
			Type:        it.Type,
			Name:        it.Name,
			SourcePath:  it.SourcePath,
			SummaryText: "",
			Text:        it.Text,
		})
		items.embed = append(items.embed, embed.CodeInput{
			ID:   it.ID,
			Type: it.Type,
			Name: it.Name,
			Text: it.Text,
		})
	}

	var status *SummaryStatus
	if len(scan.Functions) > 0 {
		status = &SummaryStatus{OK: len(serrs) == 0}
		if len(serrs) > 0 {
			uids := make([]string, 0, len(serrs))
			for uid := range serrs {
				uids = append(uids, uid)
			}
			sort.Strings(uids)
			for _, uid := range uids {
				if len(status.ErrorsSample) >= maxSummaryErrorSample {
					break
				}
				status.ErrorsSample = append(status.ErrorsSample, uid+": "+serrs[uid])
			}
			logger.Warn("some function summaries fell back", "failed", len(serrs), "total", len(scan.Functions))
		}
	}

	return items, status, false, nil
}

// codeEmbedInput maps a short summary line onto the embedding input. The
// description part feeds the generic-phrase guard; a fallback line that
// trips it degrades to "kind: name".
func codeEmbedInput(uid, kind, name, short string) embed.CodeInput {
	in := embed.CodeInput{ID: uid, Type: kind, Name: name}
	if _, desc, ok := summary.SplitCompareLine(short); ok {
		in.SummaryText = desc
	} else {
		in.SummaryText = short
	}
	return in
}

func itemsFromPersisted(artifacts []PersistedArtifact) *codeItems {
	items := &codeItems{functionCount: len(artifacts)}
	for _, a := range artifacts {
		uid := a.Function.FunctionUID
		in := codeEmbedInput(uid, a.Function.Kind, a.Function.FunctionName, a.SummaryText)
		items.report = append(items.report, CodeItem{
			ID:                uid,
			Type:              a.Function.Kind,
			Name:              a.Function.FunctionName,
			SourcePath:        a.Function.FilePath,
			SummaryText:       a.SummaryText,
			StructuredSummary: a.StructuredSummary,
			Text:              a.SummaryText,
		})
		items.embed = append(items.embed, in)
		items.persistedRecords = append(items.persistedRecords, embed.Record{
			ID:     uid,
			Kind:   "code_item",
			Text:   embed.BuildCodeText(in),
			Vector: embed.Normalize(a.Vector),
		})
	}
	return items
}

func collectArtifacts(fns []codescan.StructuredFunction, items []CodeItem, records []embed.Record) []PersistedArtifact {
	vecByID := make(map[string][]float32, len(records))
	for _, rec := range records {
		vecByID[rec.ID] = rec.Vector
	}
	itemByID := make(map[string]CodeItem, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}

	out := make([]PersistedArtifact, 0, len(fns))
	for _, fn := range fns {
		it := itemByID[fn.FunctionUID]
		out = append(out, PersistedArtifact{
			Function:          fn,
			SummaryText:       it.SummaryText,
			StructuredSummary: it.StructuredSummary,
			Vector:            vecByID[fn.FunctionUID],
		})
	}
	return out
}

// addWorkflowView adds the workflow-level summary and its top-k similar
// code items. Model failures here only cost the view, never the run.
func (r *Runner) addWorkflowView(ctx context.Context, report *Report, graph *bpmn.Graph, pipeline *embed.Pipeline, code []embed.Record) {
	taskNames := make([]string, 0, len(graph.Tasks))
	for _, t := range graph.Tasks {
		taskNames = append(taskNames, t.Name)
	}

	text, err := r.summarize.SummarizeWorkflow(ctx, graph.Process.Name, taskNames)
	if err != nil {
		logger.Warn("workflow summary failed", "error", err)
		return
	}
	report.BPMNSummary = text

	if len(code) == 0 {
		return
	}
	vec, err := pipeline.EmbedText(ctx, "workflow: "+text)
	if err != nil {
		logger.Warn("workflow embedding failed", "error", err)
		return
	}
	cands, err := semantic.ScoreVector(vec, code, r.opts.TopK)
	if err != nil {
		logger.Warn("workflow similarity failed", "error", err)
		return
	}
	report.WorkflowSimilarity = cands
}
