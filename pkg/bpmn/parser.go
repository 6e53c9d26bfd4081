// Package bpmn parses BPMN 2.0 XML into a process graph and validates its
// structure before analysis.
package bpmn

import (
	"encoding/xml"
	"errors"
	"strings"
)

// Task is a BPMN activity element (task/userTask/serviceTask/...).
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Node is a generic BPMN node: event or gateway.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Flow is a sequence flow edge.
type Flow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Process holds the id and name of the first process element encountered.
type Process struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Graph is the extracted BPMN process graph.
type Graph struct {
	Process  Process `json:"process"`
	Tasks    []Task  `json:"tasks"`
	Events   []Node  `json:"events"`
	Gateways []Node  `json:"gateways"`
	Flows    []Flow  `json:"flows"`
}

// ErrNoProcess is returned when the document contains no process element.
var ErrNoProcess = errors.New("no process element found")

var taskTags = map[string]bool{
	"task":             true,
	"userTask":         true,
	"serviceTask":      true,
	"scriptTask":       true,
	"manualTask":       true,
	"businessRuleTask": true,
	"sendTask":         true,
	"receiveTask":      true,
	"callActivity":     true,
}

var eventTags = map[string]bool{
	"startEvent": true,
	"endEvent":   true,
}

var gatewayTags = map[string]bool{
	"exclusiveGateway":  true,
	"parallelGateway":   true,
	"inclusiveGateway":  true,
	"eventBasedGateway": true,
	"complexGateway":    true,
}

// element is a generic XML tree node. Tag matching works on local names
// only, so any BPMN namespace prefix is accepted.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// documentation returns the text of the first non-empty documentation child.
func (e *element) documentation() string {
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local != "documentation" {
			continue
		}
		if desc := strings.TrimSpace(c.Text); desc != "" {
			return desc
		}
	}
	return ""
}

func parseDocument(data []byte) (*element, error) {
	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// walk visits el and all descendants in document order. Returning false
// from fn skips the element's children.
func walk(el *element, fn func(*element) bool) {
	if !fn(el) {
		return
	}
	for i := range el.Children {
		walk(&el.Children[i], fn)
	}
}

// ParseGraph extracts the process graph from BPMN 2.0 XML bytes.
//
// The first process element provides the process id and name. Elements
// without an id are dropped; flows additionally require sourceRef and
// targetRef. Malformed XML yields an error; a missing process element
// yields ErrNoProcess.
func ParseGraph(data []byte) (*Graph, error) {
	root, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Tasks:    []Task{},
		Events:   []Node{},
		Gateways: []Node{},
		Flows:    []Flow{},
	}
	hasProcess := false

	walk(root, func(el *element) bool {
		tag := el.XMLName.Local

		if tag == "process" && !hasProcess {
			hasProcess = true
			g.Process.ID = el.attr("id")
			g.Process.Name = el.attr("name")
			return true
		}

		switch {
		case taskTags[tag]:
			id := el.attr("id")
			if id == "" {
				return true
			}
			g.Tasks = append(g.Tasks, Task{
				ID:          id,
				Name:        el.attr("name"),
				Description: el.documentation(),
				Type:        tag,
			})
		case eventTags[tag]:
			id := el.attr("id")
			if id == "" {
				return true
			}
			g.Events = append(g.Events, Node{
				ID:   id,
				Name: el.attr("name"),
				Type: tag,
			})
		case gatewayTags[tag]:
			id := el.attr("id")
			if id == "" {
				return true
			}
			g.Gateways = append(g.Gateways, Node{
				ID:   id,
				Name: el.attr("name"),
				Type: tag,
			})
		case tag == "sequenceFlow":
			id := el.attr("id")
			src := el.attr("sourceRef")
			tgt := el.attr("targetRef")
			if id == "" || src == "" || tgt == "" {
				return true
			}
			g.Flows = append(g.Flows, Flow{
				ID:     id,
				Name:   el.attr("name"),
				Source: src,
				Target: tgt,
				Type:   tag,
			})
		}
		return true
	})

	if !hasProcess {
		return nil, ErrNoProcess
	}
	return g, nil
}

// ExtractTasks returns only the BPMN tasks from the document.
func ExtractTasks(data []byte) ([]Task, error) {
	g, err := ParseGraph(data)
	if err != nil {
		return nil, err
	}
	return g.Tasks, nil
}
