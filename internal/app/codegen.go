package app

import (
	"crypto/rand"
	"fmt"
)

// CodeGenerator mints share codes. Codes only need to resist casual
// enumeration while an instance is joinable; uniqueness is enforced by the
// store, not here.
type CodeGenerator interface {
	Generate() (string, error)
}

// codeAlphabet has 32 characters so bytes map onto it without modulo bias.
// Easily-confused characters (0/O, 1/I) are left out since codes are read
// aloud and retyped.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// maxCodeAttempts bounds retries against store collisions so minting fails
// fast instead of looping under pathological collision rates.
const maxCodeAttempts = 5

// RandomCodeGenerator draws 6-character uppercase codes from crypto/rand.
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
