package util

import "testing"

func TestGetEnvString(t *testing.T) {
	if got := GetEnvString("COVATRACE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("got = %q, want %q", got, "fallback")
	}

	t.Setenv("COVATRACE_TEST_SET", "value")
	if got := GetEnvString("COVATRACE_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("got = %q, want %q", got, "value")
	}
}
