package types

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAccount(t *testing.T) {
	var key [AccountKeySize]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	valid := AccountFromKey(key)

	got, err := ParseAccount(string(valid))
	if err != nil {
		t.Fatalf("expected valid account, got %v", err)
	}
	if got != valid {
		t.Errorf("got %s, want %s", got, valid)
	}

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad alphabet", "0OIl"},
		{"short key", "3mJr7AoUXx2Wqd"},
		{"long key", strings.Repeat("2", 60)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccount(tt.in); !errors.Is(err, ErrInvalidAccount) {
				t.Errorf("expected ErrInvalidAccount, got %v", err)
			}
		})
	}
}
