package fee

import (
	"testing"

	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

func TestDivide(t *testing.T) {
	holdings := []stake.Holding{
		{Holder: "alice", Weight: 20},
		{Holder: "bob", Weight: 7},
		{Holder: "carol", Weight: 3},
	}

	d := Divide(types.NewAmount(100), holdings)

	want := map[types.Account]string{"alice": "66", "bob": "23", "carol": "10"}
	if len(d.Shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(d.Shares))
	}
	for _, s := range d.Shares {
		if s.Amount.String() != want[s.Holder] {
			t.Errorf("%s: got %s, want %s", s.Holder, s.Amount, want[s.Holder])
		}
	}
	if d.Dust.String() != "1" {
		t.Errorf("dust: got %s, want 1", d.Dust)
	}
}

func TestDivideSmallFee(t *testing.T) {
	d := Divide(types.NewAmount(1), []stake.Holding{{Holder: "alice", Weight: 30}})
	if d.Shares[0].Amount.String() != "1" || !d.Dust.IsZero() {
		t.Errorf("sole holder should receive the whole fee, got %s dust %s", d.Shares[0].Amount, d.Dust)
	}

	d = Divide(types.NewAmount(1), []stake.Holding{{Holder: "a", Weight: 15}, {Holder: "b", Weight: 15}})
	for _, s := range d.Shares {
		if !s.Amount.IsZero() {
			t.Errorf("%s: expected zero share, got %s", s.Holder, s.Amount)
		}
	}
	if d.Dust.String() != "1" {
		t.Errorf("dust: got %s, want 1", d.Dust)
	}
}
