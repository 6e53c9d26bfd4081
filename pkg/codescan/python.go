package codescan

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonExtractor parses Python sources with tree-sitter and builds
// StructuredFunction records for top-level functions and class methods.
// Nested functions are not emitted as separate records; their calls and
// writes are folded into the enclosing function.
type PythonExtractor struct {
	parser *sitter.Parser
}

// NewPythonExtractor creates a Python extractor with its own parser
// instance. Extractors are not safe for concurrent use.
func NewPythonExtractor() *PythonExtractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonExtractor{parser: p}
}

// ExtractFile parses one Python source and returns its function records
// in declaration order. relPath becomes the file_path of each record and
// the prefix of each function_uid.
func (e *PythonExtractor) ExtractFile(ctx context.Context, src []byte, relPath string) ([]StructuredFunction, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	out := make([]StructuredFunction, 0)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			out = append(out, buildFunction(child, src, relPath, ""))
		case "class_definition":
			out = append(out, extractMethods(child, src, relPath)...)
		case "decorated_definition":
			def := definitionInDecorated(child)
			if def == nil {
				continue
			}
			switch def.Type() {
			case "function_definition":
				out = append(out, buildFunction(def, src, relPath, ""))
			case "class_definition":
				out = append(out, extractMethods(def, src, relPath)...)
			}
		}
	}
	return out, nil
}

func definitionInDecorated(node *sitter.Node) *sitter.Node {
	if def := node.ChildByFieldName("definition"); def != nil {
		return def
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "function_definition" || child.Type() == "class_definition" {
			return child
		}
	}
	return nil
}

func extractMethods(classNode *sitter.Node, src []byte, relPath string) []StructuredFunction {
	nameNode := classNode.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	className := nodeText(nameNode, src)

	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	out := make([]StructuredFunction, 0)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			out = append(out, buildFunction(child, src, relPath, className))
		case "decorated_definition":
			if def := definitionInDecorated(child); def != nil && def.Type() == "function_definition" {
				out = append(out, buildFunction(def, src, relPath, className))
			}
		}
	}
	return out
}

func buildFunction(fn *sitter.Node, src []byte, relPath, className string) StructuredFunction {
	name := ""
	if n := fn.ChildByFieldName("name"); n != nil {
		name = nodeText(n, src)
	}

	params := parameterNames(fn, src)
	startLine := int(fn.StartPoint().Row) + 1
	endLine := int(fn.EndPoint().Row) + 1

	var c collector
	c.walk(fn, src)

	kind := "function"
	if className != "" {
		kind = "method"
	}

	return StructuredFunction{
		FunctionUID:  FunctionUID(relPath, className, name, startLine, endLine),
		FilePath:     relPath,
		Language:     "python",
		FunctionName: name,
		Signature:    fmt.Sprintf("%s(%s)", name, strings.Join(params, ", ")),
		Parameters:   params,
		Calls:        dedupeCap(c.calls, maxCalls),
		Writes:       dedupeCap(c.writes, maxWrites),
		Returns:      dedupeCap(c.returns, maxReturns),
		Exceptions:   dedupeCap(c.exceptions, maxExceptions),
		ClassName:    className,
		StartLine:    startLine,
		EndLine:      endLine,
		RawSnippet:   snippetLines(src, startLine, endLine),
		Kind:         kind,
	}
}

func parameterNames(fn *sitter.Node, src []byte) []string {
	out := []string{}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return out
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, nodeText(p, src))
		case "typed_parameter":
			// first identifier child is the name
			for j := 0; j < int(p.NamedChildCount()); j++ {
				if c := p.NamedChild(j); c.Type() == "identifier" {
					out = append(out, nodeText(c, src))
					break
				}
			}
		case "default_parameter", "typed_default_parameter":
			if n := p.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
				out = append(out, nodeText(n, src))
			}
		}
	}
	return out
}

// collector gathers calls, writes, returns and raised exceptions from a
// function body, descending into nested scopes the way the records of a
// function should reflect everything it does.
type collector struct {
	calls      []string
	writes     []string
	returns    []string
	exceptions []string
}

func (c *collector) walk(node *sitter.Node, src []byte) {
	switch node.Type() {
	case "call":
		if fnNode := node.ChildByFieldName("function"); fnNode != nil {
			if name := attrChain(fnNode, src); name != "" {
				c.calls = append(c.calls, name)
			}
		}
	case "assignment":
		if left := node.ChildByFieldName("left"); left != nil {
			if target := attrChain(left, src); target != "" {
				c.writes = append(c.writes, target)
			}
		}
	case "return_statement":
		c.returns = append(c.returns, returnValue(node, src))
	case "raise_statement":
		if exc := raisedException(node, src); exc != "" {
			c.exceptions = append(c.exceptions, exc)
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		c.walk(node.NamedChild(i), src)
	}
}

// attrChain builds "a.b.c" from identifier/attribute nodes; anything else
// (subscripts, tuples, calls) yields "".
func attrChain(node *sitter.Node, src []byte) string {
	switch node.Type() {
	case "identifier":
		return nodeText(node, src)
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return ""
		}
		prefix := attrChain(obj, src)
		if prefix == "" {
			return ""
		}
		return prefix + "." + nodeText(attr, src)
	}
	return ""
}

func returnValue(node *sitter.Node, src []byte) string {
	if node.NamedChildCount() == 0 {
		return "None"
	}
	value := node.NamedChild(0)
	switch value.Type() {
	case "string":
		return stringContent(value, src)
	case "integer", "float":
		return nodeText(value, src)
	case "true":
		return "True"
	case "false":
		return "False"
	case "none":
		return "None"
	}
	return "expr"
}

func raisedException(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "call":
			if fnNode := child.ChildByFieldName("function"); fnNode != nil {
				return attrChain(fnNode, src)
			}
		case "identifier":
			return nodeText(child, src)
		}
	}
	return ""
}

func stringContent(node *sitter.Node, src []byte) string {
	s := nodeText(node, src)
	s = strings.TrimLeft(s, "rbufRBUF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func snippetLines(src []byte, start, end int) string {
	lines := strings.Split(string(src), "\n")
	s := start - 1
	if s < 0 {
		s = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if s >= end {
		return ""
	}
	return strings.Join(lines[s:end], "\n")
}
