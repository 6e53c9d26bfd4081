package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/codescan"
)

const orderBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <process id="Process_1" name="Order Handling">
    <startEvent id="Start_1"/>
    <userTask id="Task_Validate" name="Validate Order"/>
    <serviceTask id="Task_Ship" name="Ship Order"/>
    <endEvent id="End_1"/>
    <sequenceFlow id="Flow_1" sourceRef="Start_1" targetRef="Task_Validate"/>
    <sequenceFlow id="Flow_2" sourceRef="Task_Validate" targetRef="Task_Ship"/>
    <sequenceFlow id="Flow_3" sourceRef="Task_Ship" targetRef="End_1"/>
  </process>
</definitions>`

const orderPy = `def validate_order(order):
    ok = check_fields(order)
    return ok


def ship_order(order):
    label = carrier.create_label(order)
    return label
`

// fakeRunClient embeds by keyword so validate/ship texts land on distinct
// axes, and scripts the summary responses.
type fakeRunClient struct {
	summariesFail bool
	embedCalls    int
	formatCalls   int
}

func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "validate"):
		return []float32{1, 0, 0}
	case strings.Contains(t, "ship"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (f *fakeRunClient) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	if strings.Contains(prompt, "business summary") {
		return "The workflow validates incoming customer orders. Accepted orders are then shipped to the customer.", nil
	}
	// detailed function summary
	return "Reads the incoming order payload, checks every required field against the schema and reports whether the order can continue through the process.", nil
}

func (f *fakeRunClient) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, _ ...ai.GenerateOption) error {
	f.formatCalls++
	if f.summariesFail {
		return errors.New("model down")
	}
	title, desc := "Validate Order", "Check the incoming customer order fields and confirm the order can be fulfilled by the warehouse"
	if strings.Contains(prompt, "ship_order") {
		title, desc = "Ship Order", "Create a shipment for the accepted order and hand the package over to the carrier service"
	}
	raw, _ := json.Marshal(map[string]string{"title": title, "description": desc})
	return json.Unmarshal(raw, out)
}

func (f *fakeRunClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	vecs, err := f.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeRunClient) GenerateEmbeddings(_ context.Context, inputs [][]byte) ([][]float32, error) {
	f.embedCalls++
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = keywordVector(string(in))
	}
	return out, nil
}

func (f *fakeRunClient) ResetMetrics()               {}
func (f *fakeRunClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func writeCodeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "orders"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "orders", "service.py"), []byte(orderPy), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRun_FullPipeline(t *testing.T) {
	client := &fakeRunClient{}
	runner := NewRunner(client, Options{Workers: 1})

	report, err := runner.Run(context.Background(), Input{BPMN: []byte(orderBPMN), CodeRoot: writeCodeRoot(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Meta.Matcher != "greedy_one_to_one" || report.Meta.Threshold != DefaultThreshold {
		t.Fatalf("meta = %+v", report.Meta)
	}
	// the defaulted values flow into the evaluation summary, which is
	// what gets cached on the run row
	if report.Evaluation.Summary.Threshold != report.Meta.Threshold {
		t.Fatalf("evaluation threshold = %v, meta threshold = %v",
			report.Evaluation.Summary.Threshold, report.Meta.Threshold)
	}
	if report.BPMN.Process.Name != "Order Handling" || len(report.BPMN.Tasks) != 2 {
		t.Fatalf("bpmn = %+v", report.BPMN)
	}
	if len(report.Code.Items) != 2 {
		t.Fatalf("code items = %+v", report.Code.Items)
	}
	if report.Stats.Matched != 2 || report.Stats.Missing != 0 || report.Stats.Extra != 0 {
		t.Fatalf("stats = %+v", report.Stats)
	}

	byTask := map[string]string{}
	for _, p := range report.Matching.Matched {
		byTask[p.TaskID] = p.CodeID
	}
	if !strings.Contains(byTask["Task_Validate"], "validate_order") {
		t.Fatalf("Task_Validate matched %q", byTask["Task_Validate"])
	}
	if !strings.Contains(byTask["Task_Ship"], "ship_order") {
		t.Fatalf("Task_Ship matched %q", byTask["Task_Ship"])
	}

	if report.Evaluation.Summary.Precision != 1 || report.Evaluation.Summary.Recall != 1 {
		t.Fatalf("evaluation = %+v", report.Evaluation.Summary)
	}
	if len(report.TopK["Task_Validate"]) == 0 {
		t.Fatalf("top_k missing Task_Validate: %+v", report.TopK)
	}
	if report.SummaryStatus == nil || !report.SummaryStatus.OK {
		t.Fatalf("summary status = %+v", report.SummaryStatus)
	}
	if report.BPMNSummary == "" || len(report.WorkflowSimilarity) == 0 {
		t.Fatalf("workflow view missing: %q, %+v", report.BPMNSummary, report.WorkflowSimilarity)
	}
	if report.Debug == nil || report.Debug.Similarity != nil {
		t.Fatalf("debug = %+v, want meta only without matrices", report.Debug)
	}
}

func TestRun_PrecheckFailureStopsEarly(t *testing.T) {
	client := &fakeRunClient{}
	runner := NewRunner(client, Options{})

	_, err := runner.Run(context.Background(), Input{BPMN: []byte("<definitions></definitions>")})
	var pe *PrecheckError
	if !errors.As(err, &pe) {
		t.Fatalf("Run() error = %v, want PrecheckError", err)
	}
	if len(pe.Result.Errors) == 0 {
		t.Fatalf("precheck result = %+v, want errors", pe.Result)
	}
	if client.embedCalls != 0 || client.formatCalls != 0 {
		t.Fatalf("model was called after failed precheck: embed=%d format=%d", client.embedCalls, client.formatCalls)
	}
}

func TestRun_SummaryFailuresFallBack(t *testing.T) {
	client := &fakeRunClient{summariesFail: true}
	runner := NewRunner(client, Options{Workers: 1})

	report, err := runner.Run(context.Background(), Input{BPMN: []byte(orderBPMN), CodeRoot: writeCodeRoot(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SummaryStatus == nil || report.SummaryStatus.OK {
		t.Fatalf("summary status = %+v, want failures recorded", report.SummaryStatus)
	}
	if len(report.SummaryStatus.ErrorsSample) == 0 {
		t.Fatalf("errors sample empty")
	}
	// fallback summaries still let matching succeed on the item names
	if report.Stats.Matched != 2 {
		t.Fatalf("stats = %+v, want both tasks matched", report.Stats)
	}
	for _, item := range report.Code.Items {
		if item.SummaryText == "" {
			t.Fatalf("item %q has no summary text", item.ID)
		}
	}
}

func TestRun_DebugIncludesMatrices(t *testing.T) {
	client := &fakeRunClient{}
	runner := NewRunner(client, Options{Workers: 1, Debug: true})

	report, err := runner.Run(context.Background(), Input{BPMN: []byte(orderBPMN), CodeRoot: writeCodeRoot(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Debug == nil || report.Debug.Similarity == nil {
		t.Fatalf("debug similarity missing")
	}
	if len(report.Debug.TaskEmbeddings) != 2 || len(report.Debug.CodeEmbeddings) != 2 {
		t.Fatalf("debug embeddings = %d tasks, %d code", len(report.Debug.TaskEmbeddings), len(report.Debug.CodeEmbeddings))
	}
}

func TestRun_PersistedArtifactsSkipScanAndSummaries(t *testing.T) {
	client := &fakeRunClient{}
	runner := NewRunner(client, Options{Workers: 1, Matcher: "best_per_task"})

	persisted := []PersistedArtifact{
		{
			Function: codescan.StructuredFunction{
				FunctionUID:  "orders/service.py::validate_order@L1-L3",
				FunctionName: "validate_order",
				FilePath:     "orders/service.py",
				Kind:         "function",
			},
			SummaryText: "Task: Validate Order. Description: Check the incoming customer order fields and confirm the order can be fulfilled by the warehouse.",
			Vector:      []float32{1, 0, 0},
		},
		{
			Function: codescan.StructuredFunction{
				FunctionUID:  "orders/service.py::ship_order@L6-L8",
				FunctionName: "ship_order",
				FilePath:     "orders/service.py",
				Kind:         "function",
			},
			SummaryText: "Task: Ship Order. Description: Create a shipment for the accepted order and hand the package over to the carrier service.",
			Vector:      []float32{0, 1, 0},
		},
	}

	report, err := runner.Run(context.Background(), Input{BPMN: []byte(orderBPMN), Persisted: persisted})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Meta.UsedPersistedArtifacts {
		t.Fatalf("meta = %+v, want persisted flag", report.Meta)
	}
	if report.Meta.Matcher != "best_per_task" || report.Matching.Meta.Strategy != "best_per_task_many_to_one" {
		t.Fatalf("matcher = %q / %q", report.Meta.Matcher, report.Matching.Meta.Strategy)
	}
	if client.formatCalls != 0 {
		t.Fatalf("summaries were regenerated: %d calls", client.formatCalls)
	}
	if report.Stats.Matched != 2 || report.Stats.CodeCountEmbedded != 2 {
		t.Fatalf("stats = %+v", report.Stats)
	}
	if report.SummaryStatus != nil {
		t.Fatalf("summary status = %+v, want nil on fast path", report.SummaryStatus)
	}
}
