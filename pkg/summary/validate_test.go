package summary

import (
	"strings"
	"testing"
)

func TestValidateCompareLine(t *testing.T) {
	good := "Task: Process Payment. Description: Authorize a customer payment and update the order status to paid or failed state."

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", good, false},
		{"valid without trailing period", strings.TrimSuffix(good, "."), false},
		{"multi line", "Task: A B.\nDescription: x", true},
		{"missing format", "Authorize a customer payment and update the order status for the shop.", true},
		{"title too short", "Task: Pay. Description: Authorize a customer payment and update the order status to paid or failed state.", true},
		{"title too long", "Task: One Two Three Four Five Six Seven. Description: Authorize a customer payment and update the order status to paid or failed state.", true},
		{"description too short", "Task: Process Payment. Description: Authorize a payment now.", true},
		{"description two sentences", "Task: Process Payment. Description: Authorize a customer payment quickly. Then update the order status to paid or failed state.", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCompareLine(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ValidateCompareLine(%q) expected error, got %q", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateCompareLine(%q) error = %v", tc.in, err)
			}
			if got != good {
				t.Fatalf("ValidateCompareLine() = %q, want %q", got, good)
			}
		})
	}
}

func TestComposeCompareLine(t *testing.T) {
	got := ComposeCompareLine(" Process  Payment. ", "Authorize a payment.")
	want := "Task: Process Payment. Description: Authorize a payment."
	if got != want {
		t.Fatalf("ComposeCompareLine() = %q, want %q", got, want)
	}
}

func TestValidateDetailed(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got, err := ValidateDetailed(long + "\n  done")
	if err != nil {
		t.Fatalf("ValidateDetailed() error = %v", err)
	}
	if strings.Contains(got, "\n") || strings.Contains(got, "  ") {
		t.Fatalf("ValidateDetailed() did not collapse whitespace: %q", got)
	}

	if _, err := ValidateDetailed("too short"); err == nil {
		t.Fatalf("ValidateDetailed() expected error for short input")
	}
	if _, err := ValidateDetailed(strings.Repeat("word ", 200)); err == nil {
		t.Fatalf("ValidateDetailed() expected error for long input")
	}
}
