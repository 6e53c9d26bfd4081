package embed

import (
	"testing"

	"github.com/covadev/covatrace/pkg/bpmn"
)

func TestBuildTaskText(t *testing.T) {
	tests := []struct {
		name string
		task bpmn.Task
		want string
	}{
		{
			name: "all fields",
			task: bpmn.Task{ID: "Task_1", Name: "Validate Order", Description: "Checks payload", Type: "userTask"},
			want: "Task: Validate Order. Description: Checks payload. Type: userTask.",
		},
		{
			name: "no description",
			task: bpmn.Task{ID: "Task_2", Name: "Ship Order", Type: "serviceTask"},
			want: "Task: Ship Order. Type: serviceTask.",
		},
		{
			name: "empty",
			task: bpmn.Task{ID: "Task_3"},
			want: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildTaskText(tc.task); got != tc.want {
				t.Fatalf("BuildTaskText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildCodeText(t *testing.T) {
	tests := []struct {
		name string
		item CodeInput
		want string
	}{
		{
			name: "meaningful summary",
			item: CodeInput{
				ID:          "orders/service.py::create_order@L1-L10",
				Name:        "create_order",
				SummaryText: "Record a new customer order and store selected items in the system.",
			},
			want: "Task: Create Order. Description: Record a new customer order and store selected items in the system.",
		},
		{
			name: "generic summary falls back to item text",
			item: CodeInput{
				ID:          "web/Form.jsx:component:CheckoutForm",
				Name:        "CheckoutForm",
				SummaryText: "Handles the request and returns a result.",
				Text:        "checkout form renders the checkout form",
			},
			want: "checkout form renders the checkout form",
		},
		{
			name: "no summary no text uses kind and name",
			item: CodeInput{ID: "x", Type: "function", Name: "helper"},
			want: "function: helper",
		},
		{
			name: "name only",
			item: CodeInput{ID: "x", Name: "helper"},
			want: "helper",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildCodeText(tc.item); got != tc.want {
				t.Fatalf("BuildCodeText() = %q, want %q", got, tc.want)
			}
		})
	}
}
