package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("planet")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(got, "planet-") {
		t.Errorf("expected planet- prefix, got %q", got)
	}

	// Default NanoID is 21 characters plus prefix and separator.
	if len(got) != len("planet-")+21 {
		t.Errorf("unexpected length %d for %q", len(got), got)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("book")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	got := MustGenerate("acct")
	if !strings.HasPrefix(got, "acct-") {
		t.Errorf("expected acct- prefix, got %q", got)
	}
}
