package bpmn

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PrecheckResult reports whether a BPMN file is structurally fit for
// analysis. Errors are fatal; warnings are informational.
type PrecheckResult struct {
	OK          bool     `json:"ok"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	ProcessName string   `json:"process_name"`
	TaskCount   int      `json:"task_count"`
}

func failure(msg, processName string, taskCount int, warnings []string) PrecheckResult {
	if warnings == nil {
		warnings = []string{}
	}
	return PrecheckResult{
		OK:          false,
		Errors:      []string{msg},
		Warnings:    warnings,
		ProcessName: processName,
		TaskCount:   taskCount,
	}
}

// Precheck validates BPMN XML bytes before any analysis runs.
//
// Hard gates short-circuit in order: well-formed XML, a process element,
// a parseable graph, at least one task, unique node ids, and resolvable
// sequence flow references. Once all gates pass, structural oddities
// (missing start/end events, orphan or unreachable tasks, degenerate
// gateways) are collected as warnings.
func Precheck(data []byte) PrecheckResult {
	warnings := []string{}

	g, err := ParseGraph(data)
	if err != nil {
		if errors.Is(err, ErrNoProcess) {
			return failure("No <process> element found. This is not a valid BPMN process file.", "", 0, nil)
		}
		return failure(fmt.Sprintf("Invalid XML: %v", err), "", 0, nil)
	}

	processName := g.Process.Name
	taskCount := len(g.Tasks)

	if taskCount == 0 {
		return failure("No BPMN tasks found (task/userTask/serviceTask/...).", processName, 0, nil)
	}

	// Unique node ids across tasks, events and gateways.
	nodeIDList := make([]string, 0, len(g.Tasks)+len(g.Events)+len(g.Gateways))
	for _, t := range g.Tasks {
		nodeIDList = append(nodeIDList, t.ID)
	}
	for _, e := range g.Events {
		nodeIDList = append(nodeIDList, e.ID)
	}
	for _, gw := range g.Gateways {
		nodeIDList = append(nodeIDList, gw.ID)
	}

	nodeIDs := make(map[string]int, len(nodeIDList))
	for _, id := range nodeIDList {
		nodeIDs[id]++
	}
	if len(nodeIDs) != len(nodeIDList) {
		dupes := make([]string, 0)
		for id, n := range nodeIDs {
			if n > 1 {
				dupes = append(dupes, id)
			}
		}
		sort.Strings(dupes)
		if len(dupes) > 10 {
			dupes = dupes[:10]
		}
		return failure(
			"Duplicate BPMN element IDs found: "+strings.Join(dupes, ", "),
			processName, taskCount, nil,
		)
	}

	startIDs := []string{}
	endIDs := []string{}
	for _, e := range g.Events {
		switch e.Type {
		case "startEvent":
			startIDs = append(startIDs, e.ID)
		case "endEvent":
			endIDs = append(endIDs, e.ID)
		}
	}
	if len(startIDs) == 0 {
		warnings = append(warnings, "No startEvent found (model may be incomplete).")
	}
	if len(endIDs) == 0 {
		warnings = append(warnings, "No endEvent found (model may be incomplete).")
	}

	// Flow references must resolve to known nodes.
	badFlows := []string{}
	for _, f := range g.Flows {
		fid := f.ID
		if fid == "" {
			fid = "[no-id]"
		}
		if f.Source == "" || f.Target == "" {
			badFlows = append(badFlows, fid+" (missing sourceRef/targetRef)")
			continue
		}
		if _, ok := nodeIDs[f.Source]; !ok {
			badFlows = append(badFlows, fmt.Sprintf("%s (invalid ref %s -> %s)", fid, f.Source, f.Target))
			continue
		}
		if _, ok := nodeIDs[f.Target]; !ok {
			badFlows = append(badFlows, fmt.Sprintf("%s (invalid ref %s -> %s)", fid, f.Source, f.Target))
		}
	}
	if len(badFlows) > 0 {
		if len(badFlows) > 10 {
			badFlows = badFlows[:10]
		}
		return failure(
			"Invalid sequenceFlow references: "+strings.Join(badFlows, "; "),
			processName, taskCount, warnings,
		)
	}

	outEdges := map[string][]string{}
	inDeg := map[string]int{}
	used := map[string]bool{}
	for _, f := range g.Flows {
		outEdges[f.Source] = append(outEdges[f.Source], f.Target)
		inDeg[f.Target]++
		used[f.Source] = true
		used[f.Target] = true
	}

	// Orphans: tasks not touched by any flow.
	orphanTasks := 0
	for _, t := range g.Tasks {
		if !used[t.ID] {
			orphanTasks++
		}
	}
	if orphanTasks > 0 {
		warnings = append(warnings, fmt.Sprintf("%d orphan task(s) not connected by any sequenceFlow.", orphanTasks))
	}

	// Reachability from start events, falling back to in-degree-0 nodes
	// when the model has no startEvent.
	entryNodes := startIDs
	if len(entryNodes) == 0 {
		for _, id := range nodeIDList {
			if inDeg[id] == 0 {
				entryNodes = append(entryNodes, id)
			}
		}
		if len(entryNodes) == 0 {
			warnings = append(warnings, "Could not find an entry node (no startEvent and no in-degree-0 nodes).")
		}
	}

	reachable := map[string]bool{}
	queue := append([]string{}, entryNodes...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if reachable[cur] {
			continue
		}
		reachable[cur] = true
		for _, next := range outEdges[cur] {
			if !reachable[next] {
				queue = append(queue, next)
			}
		}
	}

	unreachableTasks := 0
	for _, t := range g.Tasks {
		if !reachable[t.ID] {
			unreachableTasks++
		}
	}
	if unreachableTasks > 0 {
		warnings = append(warnings, fmt.Sprintf("%d task(s) are unreachable from the start/entry node.", unreachableTasks))
	}

	if len(endIDs) > 0 {
		endReachable := false
		for _, id := range endIDs {
			if reachable[id] {
				endReachable = true
				break
			}
		}
		if !endReachable {
			warnings = append(warnings, "No endEvent is reachable from the start/entry node (disconnected flow).")
		}
	}

	// Branching gateways with fewer than two outgoing flows are suspicious.
	for _, gw := range g.Gateways {
		switch gw.Type {
		case "exclusiveGateway", "parallelGateway", "inclusiveGateway":
		default:
			continue
		}
		switch len(outEdges[gw.ID]) {
		case 0:
			warnings = append(warnings, fmt.Sprintf("Gateway %s (%s) has no outgoing sequenceFlow.", gw.ID, gw.Type))
		case 1:
			warnings = append(warnings, fmt.Sprintf("Gateway %s (%s) has only 1 outgoing flow (might be unnecessary).", gw.ID, gw.Type))
		}
	}

	return PrecheckResult{
		OK:          true,
		Errors:      []string{},
		Warnings:    warnings,
		ProcessName: processName,
		TaskCount:   taskCount,
	}
}
