package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		hexLength  int
		wantLength int
	}{
		{"message SID format", "SM", 32, 34},
		{"custom prefix", "test_", 16, 21},
		{"empty hex", "x", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomID(tt.prefix, tt.hexLength)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("GenerateRandomID() = %v, want prefix %v", got, tt.prefix)
			}
			if len(got) != tt.wantLength {
				t.Errorf("GenerateRandomID() length = %v, want %v", len(got), tt.wantLength)
			}
			if !isValidHex(got[len(tt.prefix):]) {
				t.Errorf("GenerateRandomID() hex part of %v is not valid hex", got)
			}
		})
	}
}

func TestGenerateRandomHex(t *testing.T) {
	for _, n := range []int{-1, 0, 8, 64} {
		got := GenerateRandomHex(n)
		want := n
		if want < 0 {
			want = 0
		}
		if len(got) != want {
			t.Errorf("GenerateRandomHex(%d) length = %d", n, len(got))
		}
		if !isValidHex(got) {
			t.Errorf("GenerateRandomHex(%d) = %v is not valid hex", n, got)
		}
	}
}

func TestGenerateMessageSID(t *testing.T) {
	got := GenerateMessageSID()
	if !strings.HasPrefix(got, "SM") || len(got) != 34 {
		t.Errorf("GenerateMessageSID() = %v", got)
	}
}

func TestNewTraceIDUniqueness(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool)

	for i := 0; i < iterations; i++ {
		id := NewTraceID()
		if len(id) != 12 {
			t.Fatalf("NewTraceID() length = %d, want 12", len(id))
		}
		if seen[id] {
			t.Errorf("NewTraceID() generated duplicate: %v", id)
		}
		seen[id] = true
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("BRENDA_TEST_BOOL", "off")
	if ParseBoolEnv("BRENDA_TEST_BOOL", true) {
		t.Error("expected off to parse as false")
	}
	t.Setenv("BRENDA_TEST_BOOL", "maybe")
	if !ParseBoolEnv("BRENDA_TEST_BOOL", true) {
		t.Error("expected invalid value to fall back to default")
	}
	if ParseBoolEnv("BRENDA_TEST_UNSET", false) {
		t.Error("expected unset value to fall back to default")
	}
}

func TestParseFloatEnv(t *testing.T) {
	t.Setenv("BRENDA_TEST_FLOAT", "12.5")
	if got := ParseFloatEnv("BRENDA_TEST_FLOAT", 1); got != 12.5 {
		t.Errorf("ParseFloatEnv() = %v", got)
	}
	t.Setenv("BRENDA_TEST_FLOAT", "abc")
	if got := ParseFloatEnv("BRENDA_TEST_FLOAT", 1); got != 1 {
		t.Errorf("ParseFloatEnv() fallback = %v", got)
	}
}

func isValidHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
