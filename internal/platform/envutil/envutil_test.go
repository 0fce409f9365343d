package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_INT", "abc")
	if got := Int("SKILLHUB_TEST_INT", 7); got != 7 {
		t.Fatalf("want 7, got %d", got)
	}
	t.Setenv("SKILLHUB_TEST_INT", " 12 ")
	if got := Int("SKILLHUB_TEST_INT", 7); got != 12 {
		t.Fatalf("want 12, got %d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_BOOL", "off")
	if Bool("SKILLHUB_TEST_BOOL", true) {
		t.Fatalf("off should be false")
	}
	t.Setenv("SKILLHUB_TEST_BOOL", "maybe")
	if !Bool("SKILLHUB_TEST_BOOL", true) {
		t.Fatalf("unparseable should use default")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_SECS", "90")
	if got := Seconds("SKILLHUB_TEST_SECS", time.Second); got != 90*time.Second {
		t.Fatalf("want 90s, got %s", got)
	}
}
