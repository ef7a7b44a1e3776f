package domain

import (
	"strings"
	"testing"
)

func TestContextSlices(t *testing.T) {
	text := strings.Repeat("x", QASliceChars*7+10)

	slices := ContextSlices(text)
	if len(slices) != QAMaxSlices {
		t.Fatalf("expected %d slices, got %d", QAMaxSlices, len(slices))
	}
	for i, s := range slices {
		if len([]rune(s)) != QASliceChars {
			t.Errorf("slice %d: expected %d chars, got %d", i, QASliceChars, len([]rune(s)))
		}
	}

	short := ContextSlices("short text")
	if len(short) != 1 || short[0] != "short text" {
		t.Errorf("unexpected slices for short text: %v", short)
	}
	if len(ContextSlices("")) != 0 {
		t.Error("expected no slices for empty text")
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("héllo", 2) != "hé" {
		t.Errorf("unexpected truncation %q", Truncate("héllo", 2))
	}
	if Truncate("abc", 10) != "abc" {
		t.Error("expected short text unchanged")
	}
}
