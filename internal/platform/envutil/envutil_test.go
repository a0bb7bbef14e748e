package envutil

import "testing"

func TestString(t *testing.T) {
	t.Setenv("ST_TEST_STRING", "  value  ")
	if got := String("ST_TEST_STRING", "def"); got != "value" {
		t.Fatalf("String: want=value got=%q", got)
	}
	if got := String("ST_TEST_STRING_MISSING", "def"); got != "def" {
		t.Fatalf("String default: want=def got=%q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("ST_TEST_INT", "30")
	if got := Int("ST_TEST_INT", 15); got != 30 {
		t.Fatalf("Int: want=30 got=%d", got)
	}
	t.Setenv("ST_TEST_INT", "not-a-number")
	if got := Int("ST_TEST_INT", 15); got != 15 {
		t.Fatalf("Int garbage: want=15 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "on": true,
		"0": false, "false": false, "NO": false, "off": false,
		"maybe": false,
	}
	for raw, want := range cases {
		t.Setenv("ST_TEST_BOOL", raw)
		if got := Bool("ST_TEST_BOOL", false); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
	if !Bool("ST_TEST_BOOL_MISSING", true) {
		t.Fatalf("Bool default: want=true")
	}
}
