package env

import (
	"reflect"
	"testing"
)

func TestFirstSkipsBlankValues(t *testing.T) {
	t.Setenv("MBG_TEST_A", "  ")
	t.Setenv("MBG_TEST_B", " token-b ")
	t.Setenv("MBG_TEST_C", "token-c")

	if got := First("MBG_TEST_A", "MBG_TEST_B", "MBG_TEST_C"); got != "token-b" {
		t.Fatalf("expected token-b, got %q", got)
	}
	if got := First("MBG_TEST_MISSING"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestList(t *testing.T) {
	got := List(" Admin@Example.com, ,ops@example.com,")
	want := []string{"admin@example.com", "ops@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
