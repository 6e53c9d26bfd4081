package util

import (
	"strings"
	"testing"
)

func TestNewRunID(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		id, err := NewRunID()
		if err != nil {
			t.Fatalf("NewRunID() error = %v", err)
		}
		if len(id) != 16 {
			t.Fatalf("len(id) = %d, want 16", len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(runIDAlphabet, r) {
				t.Fatalf("id %q contains %q outside the alphabet", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
