package cryptox

import (
	"encoding/hex"
	"testing"
)

func TestNewShareToken_LengthAndCharset(t *testing.T) {
	tok, err := NewShareToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tok) != shareTokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", shareTokenBytes*2, len(tok))
	}
	if _, err := hex.DecodeString(tok); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
}

func TestNewShareToken_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok, err := NewShareToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}
