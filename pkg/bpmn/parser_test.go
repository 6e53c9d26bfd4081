package bpmn

import (
	"errors"
	"strings"
	"testing"
)

const orderProcessXML = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <bpmn:process id="Process_1" name="Order Handling">
    <bpmn:startEvent id="Start_1" name="Order received"/>
    <bpmn:userTask id="Task_1" name="Validate Order">
      <bpmn:documentation>Check order fields and customer data.</bpmn:documentation>
    </bpmn:userTask>
    <bpmn:exclusiveGateway id="Gw_1" name="Valid?"/>
    <bpmn:serviceTask id="Task_2" name="Reserve Stock"/>
    <bpmn:endEvent id="End_1" name="Done"/>
    <bpmn:sequenceFlow id="Flow_1" sourceRef="Start_1" targetRef="Task_1"/>
    <bpmn:sequenceFlow id="Flow_2" sourceRef="Task_1" targetRef="Gw_1"/>
    <bpmn:sequenceFlow id="Flow_3" sourceRef="Gw_1" targetRef="Task_2"/>
    <bpmn:sequenceFlow id="Flow_4" sourceRef="Gw_1" targetRef="End_1"/>
    <bpmn:sequenceFlow id="Flow_5" sourceRef="Task_2" targetRef="End_1"/>
  </bpmn:process>
</bpmn:definitions>`

func TestParseGraph(t *testing.T) {
	g, err := ParseGraph([]byte(orderProcessXML))
	if err != nil {
		t.Fatalf("ParseGraph() error = %v", err)
	}

	if g.Process.ID != "Process_1" || g.Process.Name != "Order Handling" {
		t.Fatalf("process = %+v, want Process_1 / Order Handling", g.Process)
	}
	if len(g.Tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(g.Tasks))
	}
	if g.Tasks[0].ID != "Task_1" || g.Tasks[0].Type != "userTask" {
		t.Fatalf("tasks[0] = %+v, want Task_1 userTask", g.Tasks[0])
	}
	if g.Tasks[0].Description != "Check order fields and customer data." {
		t.Fatalf("tasks[0].Description = %q", g.Tasks[0].Description)
	}
	if g.Tasks[1].Description != "" {
		t.Fatalf("tasks[1].Description = %q, want empty", g.Tasks[1].Description)
	}
	if len(g.Events) != 2 || g.Events[0].Type != "startEvent" || g.Events[1].Type != "endEvent" {
		t.Fatalf("events = %+v", g.Events)
	}
	if len(g.Gateways) != 1 || g.Gateways[0].Type != "exclusiveGateway" {
		t.Fatalf("gateways = %+v", g.Gateways)
	}
	if len(g.Flows) != 5 {
		t.Fatalf("len(flows) = %d, want 5", len(g.Flows))
	}
	if g.Flows[0].Source != "Start_1" || g.Flows[0].Target != "Task_1" {
		t.Fatalf("flows[0] = %+v", g.Flows[0])
	}
}

func TestParseGraph_DropsElementsWithoutID(t *testing.T) {
	xml := `<definitions><process id="P" name="X">
		<task name="no id"/>
		<task id="T1" name="has id"/>
		<sequenceFlow id="F1" sourceRef="T1"/>
	</process></definitions>`

	g, err := ParseGraph([]byte(xml))
	if err != nil {
		t.Fatalf("ParseGraph() error = %v", err)
	}
	if len(g.Tasks) != 1 || g.Tasks[0].ID != "T1" {
		t.Fatalf("tasks = %+v, want only T1", g.Tasks)
	}
	if len(g.Flows) != 0 {
		t.Fatalf("flows = %+v, want flow without targetRef dropped", g.Flows)
	}
}

func TestParseGraph_FirstProcessWins(t *testing.T) {
	xml := `<definitions>
		<process id="P1" name="First"><task id="T1" name="a"/></process>
		<process id="P2" name="Second"><task id="T2" name="b"/></process>
	</definitions>`

	g, err := ParseGraph([]byte(xml))
	if err != nil {
		t.Fatalf("ParseGraph() error = %v", err)
	}
	if g.Process.ID != "P1" {
		t.Fatalf("process.ID = %q, want P1", g.Process.ID)
	}
	// Elements of later processes are still collected.
	if len(g.Tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(g.Tasks))
	}
}

func TestParseGraph_Errors(t *testing.T) {
	if _, err := ParseGraph([]byte("<definitions><task id=</definitions>")); err == nil {
		t.Fatalf("ParseGraph() expected error for malformed XML")
	}

	_, err := ParseGraph([]byte("<definitions><task id=\"T1\"/></definitions>"))
	if !errors.Is(err, ErrNoProcess) {
		t.Fatalf("ParseGraph() error = %v, want ErrNoProcess", err)
	}
}

func TestExtractTasks(t *testing.T) {
	tasks, err := ExtractTasks([]byte(orderProcessXML))
	if err != nil {
		t.Fatalf("ExtractTasks() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].Name != "Validate Order" || tasks[1].Name != "Reserve Stock" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestParseGraph_NamespaceAgnostic(t *testing.T) {
	plain := strings.ReplaceAll(orderProcessXML, "bpmn:", "")
	plain = strings.ReplaceAll(plain, ` xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL"`, "")

	g, err := ParseGraph([]byte(plain))
	if err != nil {
		t.Fatalf("ParseGraph() error = %v", err)
	}
	if len(g.Tasks) != 2 || len(g.Flows) != 5 {
		t.Fatalf("unprefixed parse differs: tasks=%d flows=%d", len(g.Tasks), len(g.Flows))
	}
}
