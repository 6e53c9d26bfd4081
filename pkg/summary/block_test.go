package summary

import (
	"strings"
	"testing"

	"github.com/covadev/covatrace/pkg/codescan"
)

func sampleFunction() codescan.StructuredFunction {
	return codescan.StructuredFunction{
		FunctionUID:  "orders/service.py::OrderService.create@L10-L25",
		FilePath:     "orders/service.py",
		Language:     "python",
		FunctionName: "create",
		Signature:    "create(self, payload)",
		Parameters:   []string{"self", "payload"},
		Calls:        []string{"self.repo.save", "validate"},
		Writes:       []string{"order.status"},
		Returns:      []string{"expr"},
		Exceptions:   []string{"ValueError"},
		ClassName:    "OrderService",
		StartLine:    10,
		EndLine:      25,
		RawSnippet:   "def create(self, payload):\n    ...",
		Kind:         "method",
	}
}

func TestBuildGeneratorBlock(t *testing.T) {
	block := BuildGeneratorBlock(sampleFunction())

	wantLines := []string{
		"FUNCTION_NAME: create",
		"SIGNATURE: create(self, payload)",
		"CLASS: OrderService",
		"FILE: orders/service.py",
		"PARAMETERS: self | payload",
		"CALLS: self.repo.save | validate",
		"WRITES: order.status",
		"RETURNS: expr",
		"EXCEPTIONS: ValueError",
		"CODE_SNIPPET:",
	}
	for _, l := range wantLines {
		if !strings.Contains(block, l) {
			t.Fatalf("block missing %q:\n%s", l, block)
		}
	}
}

func TestBuildGeneratorBlock_OmitsEmptyFields(t *testing.T) {
	sf := codescan.StructuredFunction{FunctionName: "lonely"}
	block := BuildGeneratorBlock(sf)
	if block != "FUNCTION_NAME: lonely" {
		t.Fatalf("block = %q, want only the function name line", block)
	}
}

func TestBuildGeneratorBlock_TruncatesSnippet(t *testing.T) {
	sf := codescan.StructuredFunction{
		FunctionName: "big",
		RawSnippet:   strings.Repeat("call_something_long()\n", 500),
	}
	block := BuildGeneratorBlock(sf)
	if !strings.Contains(block, "... (truncated)") {
		t.Fatalf("long snippet not truncated")
	}
}

func TestBuildStructuredSummary(t *testing.T) {
	got := BuildStructuredSummary(sampleFunction())
	wantParts := []string{
		"OrderService.create (python) in orders/service.py.",
		"Calls: self.repo.save, validate.",
		"Updates: order.status.",
		"Returns: expr.",
		"May raise: ValueError.",
	}
	for _, p := range wantParts {
		if !strings.Contains(got, p) {
			t.Fatalf("structured summary missing %q:\n%s", p, got)
		}
	}
}

func TestBuildStructuredSummary_ManyCalls(t *testing.T) {
	sf := sampleFunction()
	sf.Calls = []string{"a", "b", "c", "d", "e", "f"}
	got := BuildStructuredSummary(sf)
	if !strings.Contains(got, "Calls: a, b, c, d (+2 more).") {
		t.Fatalf("call list not shortened: %s", got)
	}
}
