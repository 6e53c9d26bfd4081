package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/codescan"
)

// fakeClient scripts AI responses for tests.
type fakeClient struct {
	formatFn     func(prompt string, out any) error
	completionFn func(prompt string) (string, error)
	formatCalls  int
	lastOpts     []ai.GenerateOption
}

func (f *fakeClient) GenerateCompletion(_ context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.lastOpts = opts
	if f.completionFn == nil {
		return "", errors.New("no completion scripted")
	}
	return f.completionFn(prompt)
}

func (f *fakeClient) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, opts ...ai.GenerateOption) error {
	f.formatCalls++
	f.lastOpts = opts
	if f.formatFn == nil {
		return errors.New("no format scripted")
	}
	return f.formatFn(prompt, out)
}

func (f *fakeClient) GenerateEmbedding(context.Context, []byte) ([]float32, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeClient) GenerateEmbeddings(context.Context, [][]byte) ([][]float32, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeClient) ResetMetrics()               {}
func (f *fakeClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func scriptedShort(title, desc string) func(string, any) error {
	return func(_ string, out any) error {
		o := out.(*compareOutput)
		o.Title = title
		o.Description = desc
		return nil
	}
}

func TestSummarizeFunction(t *testing.T) {
	detailed := strings.Repeat("reads the payload and saves the order ", 4)
	client := &fakeClient{
		formatFn: scriptedShort("Create Order", "Record a new customer order and store selected items and quantities in the system"),
		completionFn: func(string) (string, error) {
			return detailed, nil
		},
	}

	svc := NewService(client, 2)
	got, err := svc.SummarizeFunction(context.Background(), sampleFunction())
	if err != nil {
		t.Fatalf("SummarizeFunction() error = %v", err)
	}
	want := "Task: Create Order. Description: Record a new customer order and store selected items and quantities in the system."
	if got.Short != want {
		t.Fatalf("short = %q, want %q", got.Short, want)
	}
	if !strings.Contains(got.Detailed, "saves the order") {
		t.Fatalf("detailed = %q", got.Detailed)
	}
}

func TestSummarizeFunction_InvalidShortFails(t *testing.T) {
	client := &fakeClient{
		formatFn:     scriptedShort("X", "too short"),
		completionFn: func(string) (string, error) { return "", errors.New("down") },
	}

	svc := NewService(client, 1)
	if _, err := svc.SummarizeFunction(context.Background(), sampleFunction()); err == nil {
		t.Fatalf("SummarizeFunction() expected error for invalid short summary")
	}
	if client.formatCalls != 2 {
		t.Fatalf("formatCalls = %d, want one retry", client.formatCalls)
	}
}

func TestSummarizeFunction_DetailedFallsBackToStructured(t *testing.T) {
	client := &fakeClient{
		formatFn:     scriptedShort("Create Order", "Record a new customer order and store selected items and quantities in the system"),
		completionFn: func(string) (string, error) { return "", errors.New("down") },
	}

	svc := NewService(client, 1)
	got, err := svc.SummarizeFunction(context.Background(), sampleFunction())
	if err != nil {
		t.Fatalf("SummarizeFunction() error = %v", err)
	}
	if !strings.Contains(got.Detailed, "OrderService.create (python)") {
		t.Fatalf("detailed = %q, want structured rendering", got.Detailed)
	}
}

func TestSummarizeMany_CollectsErrorsWithoutAborting(t *testing.T) {
	detailed := strings.Repeat("reads the payload and saves the order ", 4)
	calls := 0
	client := &fakeClient{
		formatFn: func(_ string, out any) error {
			calls++
			if calls <= 2 { // both attempts for the first function fail
				return errors.New("model down")
			}
			o := out.(*compareOutput)
			o.Title = "Create Order"
			o.Description = "Record a new customer order and store selected items and quantities in the system"
			return nil
		},
		completionFn: func(string) (string, error) { return detailed, nil },
	}

	a := sampleFunction()
	b := sampleFunction()
	b.FunctionUID = "orders/service.py::cancel@L30-L40"
	b.FunctionName = "cancel"

	svc := NewService(client, 1)
	out, errs := svc.SummarizeMany(context.Background(), []codescan.StructuredFunction{a, b})

	if len(out) != 1 {
		t.Fatalf("out = %+v, want only the second function", out)
	}
	if _, ok := out[b.FunctionUID]; !ok {
		t.Fatalf("out = %+v, missing %q", out, b.FunctionUID)
	}
	if msg, ok := errs[a.FunctionUID]; !ok || msg == "" {
		t.Fatalf("errs = %+v, want failure recorded for %q", errs, a.FunctionUID)
	}
}

func TestSummarizeWorkflow(t *testing.T) {
	client := &fakeClient{
		completionFn: func(prompt string) (string, error) {
			if !strings.Contains(prompt, "Process name: Order Handling.") {
				t.Fatalf("prompt = %q", prompt)
			}
			if !strings.Contains(prompt, "Tasks: Validate Order; Reserve Stock.") {
				t.Fatalf("prompt = %q", prompt)
			}
			return "The workflow receives orders.\nIt validates and ships them.", nil
		},
	}

	svc := NewService(client, 1)
	got, err := svc.SummarizeWorkflow(context.Background(), "Order Handling", []string{"Validate Order", " Reserve Stock ", ""})
	if err != nil {
		t.Fatalf("SummarizeWorkflow() error = %v", err)
	}
	if got != "The workflow receives orders. It validates and ships them." {
		t.Fatalf("got = %q", got)
	}
}

func TestSummarizeFunction_CompletionOptions(t *testing.T) {
	t.Setenv("AI_CHAT_THINKING", "low")
	detailed := strings.Repeat("reads the payload and saves the order ", 4)
	client := &fakeClient{
		formatFn: scriptedShort("Create Order", "Record a new customer order and store selected items and quantities in the system"),
		completionFn: func(string) (string, error) {
			return detailed, nil
		},
	}

	svc := NewService(client, 1)
	if _, err := svc.SummarizeFunction(context.Background(), sampleFunction()); err != nil {
		t.Fatalf("SummarizeFunction() error = %v", err)
	}

	var opts ai.GenerateOptions
	for _, o := range client.lastOpts {
		o(&opts)
	}
	if len(opts.SystemPrompts) != 1 || opts.SystemPrompts[0] != systemPrompt {
		t.Fatalf("system prompts = %v, want the summary system prompt", opts.SystemPrompts)
	}
	if opts.Thinking != "low" {
		t.Fatalf("thinking = %q, want %q", opts.Thinking, "low")
	}
}
