package app

import (
	"strings"
	"testing"
)

func TestRandomCodeShape(t *testing.T) {
	gen := RandomCodeGenerator{}
	for i := 0; i < 100; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestRandomCodesVary(t *testing.T) {
	gen := RandomCodeGenerator{}
	seen := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen[code] = struct{}{}
	}
	// 50 draws from a billion-code space colliding down to a handful would
	// mean the random source is broken.
	if len(seen) < 45 {
		t.Fatalf("only %d distinct codes out of 50", len(seen))
	}
}
