package config

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("HOURS_TEST_DURATION", "")
	d, err := Duration("HOURS_TEST_DURATION", time.Minute)
	if err != nil || d != time.Minute {
		t.Fatalf("expected fallback 1m, got %s (%v)", d, err)
	}

	t.Setenv("HOURS_TEST_DURATION", "30")
	d, err = Duration("HOURS_TEST_DURATION", time.Minute)
	if err != nil || d != 30*time.Second {
		t.Fatalf("expected 30s, got %s (%v)", d, err)
	}

	t.Setenv("HOURS_TEST_DURATION", "2m")
	d, err = Duration("HOURS_TEST_DURATION", time.Minute)
	if err != nil || d != 2*time.Minute {
		t.Fatalf("expected 2m, got %s (%v)", d, err)
	}

	t.Setenv("HOURS_TEST_DURATION", "soon")
	if _, err := Duration("HOURS_TEST_DURATION", time.Minute); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestInt(t *testing.T) {
	t.Setenv("HOURS_TEST_INT", "12")
	v, err := Int("HOURS_TEST_INT", 1, 0)
	if err != nil || v != 12 {
		t.Fatalf("expected 12, got %d (%v)", v, err)
	}
	t.Setenv("HOURS_TEST_INT", "-1")
	if _, err := Int("HOURS_TEST_INT", 1, 0); err == nil {
		t.Fatal("expected error below minimum")
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("HOURS_TEST_BOOL", "off")
	if Bool("HOURS_TEST_BOOL", true) {
		t.Fatal("expected off to be false")
	}
	t.Setenv("HOURS_TEST_BOOL", "maybe")
	if !Bool("HOURS_TEST_BOOL", true) {
		t.Fatal("expected fallback for unknown value")
	}

	t.Setenv("HOURS_TEST_LIST", " a, ,b ")
	if got := List("HOURS_TEST_LIST", ""); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("HOURS_TEST_PORT", "70000")
	if _, err := Port("HOURS_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}
