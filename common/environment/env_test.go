package environment

import (
	"testing"
	"time"
)

func TestStringOr(t *testing.T) {
	t.Setenv("CHATTER_TEST_STR", "value")

	if got := StringOr("CHATTER_TEST_STR", "fallback"); got != "value" {
		t.Errorf("StringOr() = %q, want %q", got, "value")
	}
	if got := StringOr("CHATTER_TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("StringOr() = %q, want %q", got, "fallback")
	}
}

func TestIntOr(t *testing.T) {
	t.Setenv("CHATTER_TEST_INT", "42")
	if got := IntOr("CHATTER_TEST_INT", 7); got != 42 {
		t.Errorf("IntOr() = %d, want 42", got)
	}

	t.Setenv("CHATTER_TEST_INT", "not-a-number")
	if got := IntOr("CHATTER_TEST_INT", 7); got != 7 {
		t.Errorf("IntOr() = %d, want default 7", got)
	}
}

func TestDurationOr(t *testing.T) {
	t.Setenv("CHATTER_TEST_DUR", "45s")
	if got := DurationOr("CHATTER_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("DurationOr() = %v, want 45s", got)
	}

	t.Setenv("CHATTER_TEST_DUR", "soon")
	if got := DurationOr("CHATTER_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("DurationOr() = %v, want default 1m", got)
	}
}
