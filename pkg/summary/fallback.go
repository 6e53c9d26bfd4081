package summary

import (
	"strings"

	"github.com/covadev/covatrace/pkg/codescan"
)

// HumanizeSymbol turns a code symbol into a readable label:
// "create_order" -> "Create order".
func HumanizeSymbol(symbol string) string {
	s := trimmed(strings.ReplaceAll(symbol, "_", " "))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SymbolFromUID recovers the bare symbol from a function uid like
// "bpmn/parser.py::extract_graph@L120-L227".
func SymbolFromUID(uid string) string {
	s := trimmed(uid)
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if s = trimmed(s); s != "" {
		return s
	}
	return "unknown"
}

// Fallback builds a non-hallucinating one-line summary from the fields a
// function record actually has. It keeps the UI usable and lets matching
// proceed when the model summary fails.
func Fallback(sf codescan.StructuredFunction) string {
	fn := trimmed(sf.FunctionName)
	if fn == "" {
		fn = SymbolFromUID(sf.FunctionUID)
	}
	fnHuman := HumanizeSymbol(fn)
	if fnHuman == "" {
		fnHuman = "Function"
	}

	bits := []string{}
	if len(sf.Calls) > 0 {
		bits = append(bits, "calls other routines")
	}
	if len(sf.Writes) > 0 {
		bits = append(bits, "updates data")
	}
	if len(sf.Returns) > 0 {
		bits = append(bits, "returns a result")
	}

	tail := "implements its main behavior based on available code context"
	if len(bits) > 0 {
		tail = strings.Join(bits, ", ")
	}
	return fnHuman + " " + tail + "."
}
